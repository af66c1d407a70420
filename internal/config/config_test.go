package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "oniond.conf")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
[general]
address = 10.0.0.1
gateway = 10.0.0.254
initDelay = 5

[cluster]
port = 6433
deadTime = 5
nodes = 10.0.0.1, 10.0.0.2

[actions]
active = /usr/bin/onion-up --iface eth0
passive = /usr/bin/onion-down --iface eth0

[logging]
enable = true
level = info
file = /var/log/oniond.log
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)
	cfg, errs := Load(path)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if cfg.Address != "10.0.0.1" {
		t.Fatalf("expected address 10.0.0.1, got %q", cfg.Address)
	}
	if len(cfg.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %v", cfg.Nodes)
	}
	if len(cfg.Active) != 3 || cfg.Active[0] != "/usr/bin/onion-up" {
		t.Fatalf("expected shell-word-split active command, got %v", cfg.Active)
	}
}

func TestLoadRejectsAddressNotInNodes(t *testing.T) {
	path := writeConfig(t, `
[general]
address = 10.0.0.9
gateway = 10.0.0.254
initDelay = 0

[cluster]
port = 6433
deadTime = 5
nodes = 10.0.0.1, 10.0.0.2

[actions]
active = /bin/true
passive = /bin/true

[logging]
enable = true
`)

	_, errs := Load(path)
	if len(errs) == 0 {
		t.Fatal("expected an error when address is absent from cluster.nodes")
	}
}

func TestLoadRejectsOutOfRangePort(t *testing.T) {
	path := writeConfig(t, `
[general]
address = 10.0.0.1
gateway = 10.0.0.254
initDelay = 0

[cluster]
port = 80
deadTime = 5
nodes = 10.0.0.1, 10.0.0.2

[actions]
active = /bin/true
passive = /bin/true
`)

	_, errs := Load(path)
	found := false
	for _, e := range errs {
		if e.Section == "cluster" && e.Option == "port" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a cluster.port error, got %v", errs)
	}
}

func TestLoadRejectsTooFewNodes(t *testing.T) {
	path := writeConfig(t, `
[general]
address = 10.0.0.1
gateway = 10.0.0.254
initDelay = 0

[cluster]
port = 6433
deadTime = 5
nodes = 10.0.0.1

[actions]
active = /bin/true
passive = /bin/true
`)

	_, errs := Load(path)
	found := false
	for _, e := range errs {
		if e.Option == "nodes" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a cluster.nodes error, got %v", errs)
	}
}

func TestLoadReportsAllErrorsAtOnce(t *testing.T) {
	path := writeConfig(t, `
[general]
gateway = 10.0.0.254
initDelay = 0

[cluster]
port = 1
deadTime = 1
nodes = 10.0.0.1

[actions]
`)

	_, errs := Load(path)
	if len(errs) < 3 {
		t.Fatalf("expected multiple accumulated errors, got %d: %v", len(errs), errs)
	}
}
