package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/at-ishikawa/logeion/internal/config"
	"github.com/at-ishikawa/logeion/internal/testutil"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.DatabaseConfig
		wantDriver string
		wantErr    bool
	}{
		{
			name: "creates sqlite connection",
			cfg: config.DatabaseConfig{
				Driver: config.DriverSQLite,
				Path:   "/data/dvlg-wheel-mini.sqlite",
			},
			wantDriver: "sqlite",
		},
		{
			name: "empty driver falls back to sqlite",
			cfg: config.DatabaseConfig{
				Path: "dict.sqlite",
			},
			wantDriver: "sqlite",
		},
		{
			name: "creates mysql connection with pool settings",
			cfg: config.DatabaseConfig{
				Driver:          config.DriverMySQL,
				Host:            "localhost",
				Port:            3306,
				Database:        "logeion",
				Username:        "reader",
				Password:        "secret",
				MaxOpenConns:    25,
				MaxIdleConns:    5,
				ConnMaxLifetime: 300,
			},
			wantDriver: "mysql",
		},
		{
			name: "creates mysql connection with TLS and params",
			cfg: config.DatabaseConfig{
				Driver:   config.DriverMySQL,
				Host:     "db.example.com",
				Port:     3307,
				Database: "logeion",
				Username: "reader",
				TLS:      true,
				Params:   map[string]string{"charset": "utf8mb4"},
			},
			wantDriver: "mysql",
		},
		{
			name:    "unsupported driver",
			cfg:     config.DatabaseConfig{Driver: "postgres"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Open(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported database driver")
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			defer got.Close()

			assert.Equal(t, tt.wantDriver, got.DriverName())
		})
	}
}

func TestOpen_MissingSQLiteFileFailsOnUse(t *testing.T) {
	db, err := Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "missing", "dict.sqlite"),
	})
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, db.PingContext(context.Background()))
}

func TestSqliteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/data/dict.sqlite", want: "file:/data/dict.sqlite?mode=ro"},
		{path: "dict.sqlite", want: "file:dict.sqlite?mode=ro"},
		{path: "/data/a#b/dict.sqlite", want: "file:/data/a%23b/dict.sqlite?mode=ro"},
		{path: "/data/q?x/dict.sqlite", want: "file:/data/q%3fx/dict.sqlite?mode=ro"},
		{path: "/data/50%off/dict.sqlite", want: "file:/data/50%25off/dict.sqlite?mode=ro"},
		{path: "/data/sp ace/dict.sqlite", want: "file:/data/sp ace/dict.sqlite?mode=ro"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, sqliteDSN(tt.path))
		})
	}
}

func TestOpen_SQLitePathWithURIDelimiters(t *testing.T) {
	for _, dirName := range []string{"a#b", "50%off", "sp ace"} {
		t.Run(dirName, func(t *testing.T) {
			tmpDir := t.TempDir()
			dir := filepath.Join(tmpDir, dirName)
			require.NoError(t, os.Mkdir(dir, 0755))
			dbPath := testutil.SetupDictionaryDB(t, dir)

			db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: dbPath})
			require.NoError(t, err)

			var count int
			require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM Entries"))
			require.NoError(t, db.Close())
			assert.Equal(t, len(testutil.DefaultHeadwords), count)

			entries, err := os.ReadDir(tmpDir)
			require.NoError(t, err)
			var names []string
			for _, entry := range entries {
				names = append(names, entry.Name())
			}
			assert.Equal(t, []string{dirName}, names)
		})
	}
}

func TestMysqlDSN(t *testing.T) {
	dsn := mysqlDSN(config.DatabaseConfig{
		Host:     "localhost",
		Port:     3306,
		Database: "logeion",
		Username: "reader",
		Password: "secret",
	})
	assert.Contains(t, dsn, "reader:secret@tcp(localhost:3306)/logeion")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestDialect_QuoteIdent(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		ident   string
		want    string
	}{
		{name: "sqlite plain", dialect: SQLiteDialect, ident: "Entries", want: `"Entries"`},
		{name: "sqlite embedded quote", dialect: SQLiteDialect, ident: `Ent"ries`, want: `"Ent""ries"`},
		{name: "sqlite injection attempt", dialect: SQLiteDialect, ident: `Entries"; DROP TABLE x; --`, want: `"Entries""; DROP TABLE x; --"`},
		{name: "mysql plain", dialect: MySQLDialect, ident: "Entries", want: "`Entries`"},
		{name: "mysql embedded backtick", dialect: MySQLDialect, ident: "En`tries", want: "`En``tries`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.QuoteIdent(tt.ident))
		})
	}
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, MySQLDialect.Name, DialectFor(config.DriverMySQL).Name)
	assert.Equal(t, SQLiteDialect.Name, DialectFor(config.DriverSQLite).Name)
	assert.Equal(t, SQLiteDialect.Name, DialectFor("").Name)
}
