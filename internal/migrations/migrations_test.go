package migrations

import (
	"io/fs"
	"testing"
	"testing/fstest"
)

func TestParseVersion(t *testing.T) {
	cases := map[string]string{
		"V1__hostel_state.sql": "1",
		"V12__rooms.sql":       "12",
		"v1__lower.sql":        "",
		"V3.sql":               "",
		"notes.sql":            "",
	}
	for name, want := range cases {
		if got := parseVersion(name); got != want {
			t.Errorf("parseVersion(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestListMigrationsOrdersNumerically(t *testing.T) {
	fsys := fstest.MapFS{
		"V10__later.sql":   {Data: []byte("SELECT 1")},
		"V2__second.sql":   {Data: []byte("SELECT 1")},
		"V1__first.sql":    {Data: []byte("SELECT 1")},
		"README.md":        {Data: []byte("ignored")},
		"nested/V9__x.sql": {Data: []byte("SELECT 1")},
	}
	migs, err := listMigrations(fsys)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(migs) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migs))
	}
	want := []string{"V1__first.sql", "V2__second.sql", "V10__later.sql"}
	for i, name := range want {
		if migs[i].Name != name {
			t.Fatalf("position %d: got %s want %s", i, migs[i].Name, name)
		}
	}
}

func TestListMigrationsRejectsUnversioned(t *testing.T) {
	fsys := fstest.MapFS{"schema.sql": {Data: []byte("SELECT 1")}}
	if _, err := listMigrations(fsys); err == nil {
		t.Fatalf("expected error for unversioned file")
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	content, err := fs.ReadFile(Files, "V1__hostel_state.sql")
	if err != nil {
		t.Fatalf("read embedded: %v", err)
	}
	if len(content) == 0 {
		t.Fatalf("embedded migration is empty")
	}
	migs, err := listMigrations(Files)
	if err != nil || len(migs) == 0 {
		t.Fatalf("expected embedded migrations, got %v %v", migs, err)
	}
}
