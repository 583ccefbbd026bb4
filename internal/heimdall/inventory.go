package heimdall

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pscheid92/yggdrasil/internal/domain"
	"github.com/shirou/gopsutil/v4/host"
	"gopkg.in/yaml.v3"
)

// Inventory lists the devices the monitor reports on.
type Inventory struct {
	Devices []InventoryDevice `yaml:"devices"`
}

// InventoryDevice is one configured device. Address is a host:port probed over TCP;
// the origin device is the host running the monitor and is never probed.
type InventoryDevice struct {
	Name         string   `yaml:"name"`
	Connection   string   `yaml:"connection"`
	Address      string   `yaml:"address"`
	Capabilities []string `yaml:"capabilities"`
}

// Kind returns the parsed connection kind.
func (d InventoryDevice) Kind() domain.ConnectionKind {
	return domain.ParseConnectionKind(d.Connection)
}

// LoadInventory reads a YAML inventory file. An empty path yields an inventory
// containing only the local host as origin.
func LoadInventory(ctx context.Context, path string) (Inventory, error) {
	if path == "" {
		return defaultInventory(ctx), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Inventory{}, fmt.Errorf("failed to read inventory: %w", err)
	}

	return ParseInventory(data)
}

// ParseInventory decodes and validates inventory YAML.
func ParseInventory(data []byte) (Inventory, error) {
	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return Inventory{}, fmt.Errorf("failed to parse inventory: %w", err)
	}

	if err := inv.validate(); err != nil {
		return Inventory{}, err
	}
	return inv, nil
}

func (inv Inventory) validate() error {
	if len(inv.Devices) == 0 {
		return errors.New("inventory lists no devices")
	}

	seen := make(map[string]struct{}, len(inv.Devices))
	origins := 0
	for i, d := range inv.Devices {
		if d.Name == "" {
			return fmt.Errorf("device %d has no name", i)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("duplicate device name %q", d.Name)
		}
		seen[d.Name] = struct{}{}

		if d.Kind() == domain.ConnectionOrigin {
			origins++
			continue
		}
		if d.Address == "" {
			return fmt.Errorf("device %q needs an address", d.Name)
		}
	}

	if origins > 1 {
		return errors.New("inventory lists more than one origin device")
	}
	return nil
}

func defaultInventory(ctx context.Context) Inventory {
	name := "origin"
	if info, err := host.InfoWithContext(ctx); err == nil && info.Hostname != "" {
		name = info.Hostname
	}
	return Inventory{Devices: []InventoryDevice{{
		Name:       name,
		Connection: string(domain.ConnectionOrigin),
	}}}
}
