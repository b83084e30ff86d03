// Package server provides Connect RPC handlers for the dictionary service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"google.golang.org/genproto/googleapis/rpc/errdetails"

	"github.com/at-ishikawa/logeion/internal/config"
	"github.com/at-ishikawa/logeion/internal/dictionary"
	"github.com/at-ishikawa/logeion/internal/lookup"
)

const (
	// DictionaryServiceName is the fully-qualified name of the dictionary service.
	DictionaryServiceName = "logeion.v1.DictionaryService"

	GetWordProcedure         = "/" + DictionaryServiceName + "/GetWord"
	GetServerInfoProcedure   = "/" + DictionaryServiceName + "/GetServerInfo"
	ExploreDatabaseProcedure = "/" + DictionaryServiceName + "/ExploreDatabase"
)

// Dictionary is the set of operations served by the handler.
type Dictionary interface {
	LookupWord(ctx context.Context, word string) lookup.Result
	ServerInfo(ctx context.Context) lookup.ServerStatus
	ExploreDatabase(ctx context.Context, table string, limit int) dictionary.SchemaReport
}

type GetWordRequest struct {
	Word string `json:"word" validate:"required"`
}

type GetServerInfoRequest struct{}

type ExploreDatabaseRequest struct {
	TableName string `json:"tableName" validate:"omitempty,max=128"`
	Limit     int    `json:"limit" validate:"min=0"`
}

// DictionaryHandler serves the lookup operations over Connect.
type DictionaryHandler struct {
	dictionary Dictionary
	validate   *validator.Validate
	translator ut.Translator
}

// NewDictionaryHandler creates a new DictionaryHandler.
func NewDictionaryHandler(dict Dictionary) (*DictionaryHandler, error) {
	validate, trans, err := config.NewValidator("json")
	if err != nil {
		return nil, fmt.Errorf("config.NewValidator > %w", err)
	}
	return &DictionaryHandler{
		dictionary: dict,
		validate:   validate,
		translator: trans,
	}, nil
}

// GetWord looks a word up with the lemma fallback.
func (h *DictionaryHandler) GetWord(
	ctx context.Context,
	req *connect.Request[GetWordRequest],
) (*connect.Response[lookup.Result], error) {
	if err := h.validateRequest(req.Msg); err != nil {
		return nil, err
	}
	result := h.dictionary.LookupWord(ctx, req.Msg.Word)
	return connect.NewResponse(&result), nil
}

// GetServerInfo reports the server status.
func (h *DictionaryHandler) GetServerInfo(
	ctx context.Context,
	_ *connect.Request[GetServerInfoRequest],
) (*connect.Response[lookup.ServerStatus], error) {
	status := h.dictionary.ServerInfo(ctx)
	return connect.NewResponse(&status), nil
}

// ExploreDatabase describes an explorable table.
func (h *DictionaryHandler) ExploreDatabase(
	ctx context.Context,
	req *connect.Request[ExploreDatabaseRequest],
) (*connect.Response[dictionary.SchemaReport], error) {
	if err := h.validateRequest(req.Msg); err != nil {
		return nil, err
	}
	report := h.dictionary.ExploreDatabase(ctx, req.Msg.TableName, req.Msg.Limit)
	return connect.NewResponse(&report), nil
}

// NewDictionaryServiceHandler builds an HTTP handler serving every procedure of the service.
// It returns the path on which to mount the handler.
func NewDictionaryServiceHandler(h *DictionaryHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{
		connect.WithCodec(jsonCodec{}),
		connect.WithRecover(recoverPanic),
	}, opts...)

	getWord := connect.NewUnaryHandler(GetWordProcedure, h.GetWord, opts...)
	getServerInfo := connect.NewUnaryHandler(GetServerInfoProcedure, h.GetServerInfo, opts...)
	exploreDatabase := connect.NewUnaryHandler(ExploreDatabaseProcedure, h.ExploreDatabase, opts...)

	return "/" + DictionaryServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case GetWordProcedure:
			getWord.ServeHTTP(w, r)
		case GetServerInfoProcedure:
			getServerInfo.ServeHTTP(w, r)
		case ExploreDatabaseProcedure:
			exploreDatabase.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func recoverPanic(ctx context.Context, spec connect.Spec, _ http.Header, p any) error {
	slog.Default().ErrorContext(ctx, "handler panicked",
		slog.String("procedure", spec.Procedure),
		slog.Any("panic", p),
	)
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

func (h *DictionaryHandler) validateRequest(msg any) *connect.Error {
	err := h.validate.Struct(msg)
	if err == nil {
		return nil
	}

	connectErr := connect.NewError(connect.CodeInvalidArgument, errors.New(config.TranslateErrors(err, h.translator)))
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var fieldViolations []*errdetails.BadRequest_FieldViolation
		for _, v := range validationErrors {
			fieldViolations = append(fieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       v.Field(),
				Description: v.Translate(h.translator),
			})
		}
		if detail, detailErr := connect.NewErrorDetail(&errdetails.BadRequest{
			FieldViolations: fieldViolations,
		}); detailErr == nil {
			connectErr.AddDetail(detail)
		}
	}
	return connectErr
}
