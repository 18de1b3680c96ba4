// internal/database/topics_test.go
package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeTopics(t *testing.T) {
	tests := []struct {
		name    string
		current string
		keyword string
		want    string
	}{
		{"empty current", "", "airflow", "airflow"},
		{"new keyword appended sorted", "etl", "airflow", "airflow,etl"},
		{"duplicate keyword dropped", "airflow,etl", "etl", "airflow,etl"},
		{"whitespace trimmed", " airflow , etl ", "dbt", "airflow,dbt,etl"},
		{"empty keyword ignored", "airflow", "  ", "airflow"},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeTopics(tt.current, tt.keyword))
		})
	}
}
