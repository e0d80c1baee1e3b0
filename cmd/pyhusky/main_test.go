package main

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyhusky.properties")
	if err := ioutil.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFlagsOverrideConfig(t *testing.T) {
	path := writeConfig(t, "pyhusky.model.sparse = true\npyhusky.progress = true\npyhusky.train.alpha = 0.5\n")
	off := false

	c, err := settings(args{Inputs: []string{"a", "b"}, Config: path})
	if err != nil {
		t.Fatal(err)
	}
	if !c.Sparse || !c.Progress || c.Alpha != 0.5 || c.Workers != 2 {
		t.Errorf("expected the config file values, got %+v", c)
	}

	c, err = settings(args{Inputs: []string{"a"}, Config: path, Sparse: &off, Progress: &off, Alpha: 0.25})
	if err != nil {
		t.Fatal(err)
	}
	if c.Sparse || c.Progress || c.Alpha != 0.25 {
		t.Errorf("explicit flags must win over the config file, got %+v", c)
	}
}

func TestRestoreWorkers(t *testing.T) {
	c, err := settings(args{Restore: true, Workers: 3})
	if err != nil {
		t.Fatal(err)
	}
	if c.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", c.Workers)
	}
	if err := run(args{Restore: true, Workers: 1, Name: "lr"}); err == nil {
		t.Error("restoring without a checkpoint directory must fail")
	}
}
