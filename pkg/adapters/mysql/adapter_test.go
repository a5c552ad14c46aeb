package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapcollect/pkg/adapter"
	"github.com/leapstack-labs/leapcollect/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "db.internal",
				Port:     3307,
				Database: "cms",
				Username: "app",
				Password: "secret",
			},
			expected: "app:secret@tcp(db.internal:3307)/cms?parseTime=true",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "cms"},
			expected: "tcp(localhost:3306)/cms?parseTime=true",
		},
		{
			name: "options become params",
			config: adapter.Config{
				Database: "cms",
				Username: "app",
				Options:  map[string]string{"charset": "utf8mb4"},
			},
			expected: "app@tcp(localhost:3306)/cms?parseTime=true&charset=utf8mb4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildDSN(tt.config))
		})
	}
}

func TestAdapter_CreateTable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	adp := New(nil)
	adp.DB = db

	spec := core.TableSpec{
		Name: "lc_articles",
		Columns: []core.ColumnSpec{
			{Name: "id", Type: "INT(10) UNSIGNED", Primary: true, AutoIncrement: true},
			{Name: "body", Type: "TEXT", Nullable: true, Default: "ignored", Comment: "Body"},
		},
		Indexes: []core.IndexSpec{{Columns: []string{"id"}}},
	}

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE `lc_articles` (\n" +
		"    `id` INT(10) UNSIGNED NOT NULL AUTO_INCREMENT,\n" +
		"    `body` TEXT COMMENT 'Body',\n" +
		"    PRIMARY KEY (`id`)\n" +
		")").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX `lc_articles_id_index` ON `lc_articles` (`id`)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, adp.CreateTable(context.Background(), spec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Registry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("mysql"))

	adp, err := adapter.NewAdapter(adapter.Config{Type: "mysql"}, nil)
	require.NoError(t, err)
	_, ok := adp.(*Adapter)
	assert.True(t, ok)
	assert.Equal(t, "mysql", adp.Dialect().GetName())
}
