package database

import (
	"io/fs"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	files, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	up, down := 0, 0
	for _, f := range files {
		switch {
		case strings.HasSuffix(f, ".up.sql"):
			up++
		case strings.HasSuffix(f, ".down.sql"):
			down++
		}
	}
	if up == 0 || up != down {
		t.Errorf("found %d up and %d down migrations", up, down)
	}
}
