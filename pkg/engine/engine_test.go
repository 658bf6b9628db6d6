package engine

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Type
	}{
		{name: "postgres", input: "postgres", want: Postgres},
		{name: "postgresql alias", input: "PostgreSQL", want: Postgres},
		{name: "mysql", input: "mysql", want: MySQL},
		{name: "oracle", input: " oracle ", want: Oracle},
		{name: "sqlserver", input: "sqlserver", want: SQLServer},
		{name: "mssql alias", input: "mssql", want: SQLServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Unknown(t *testing.T) {
	_, err := Parse("db2")
	if !errors.Is(err, ErrUnknownEngine) {
		t.Errorf("Parse() error = %v, want ErrUnknownEngine", err)
	}
}

func TestType_Valid(t *testing.T) {
	for _, e := range All() {
		if !e.Valid() {
			t.Errorf("%q.Valid() = false", e)
		}
	}
	if Type("db2").Valid() {
		t.Error(`Type("db2").Valid() = true`)
	}
}

func TestType_DefaultPort(t *testing.T) {
	tests := map[Type]int{
		Postgres:     5432,
		MySQL:        3306,
		Oracle:       1521,
		SQLServer:    1433,
		Type("none"): 0,
	}
	for e, want := range tests {
		if got := e.DefaultPort(); got != want {
			t.Errorf("%q.DefaultPort() = %d, want %d", e, got, want)
		}
	}
}
