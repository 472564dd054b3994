package command

import (
	"context"
	"fmt"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-mmo/internal/assets"
	"github.com/pixil98/go-mmo/internal/storage"
	"github.com/pixil98/go-mmo/internal/zones"
)

type StorageConfig struct {
	Accounts AssetConfig[*assets.AccountSpec] `json:"accounts"`
	Saves    AssetConfig[*assets.SaveSpec]    `json:"saves"`
	Zones    AssetConfig[*assets.ZoneSpec]    `json:"zones"`
}

func (c *StorageConfig) validate() error {
	el := errors.NewErrorList()
	el.Add(c.Accounts.Validate("accounts"))
	el.Add(c.Saves.Validate("saves"))
	el.Add(c.Zones.Validate("zones"))
	return el.Err()
}

func (c *StorageConfig) BuildDirectory() (*assets.Directory, error) {
	accounts, err := c.Accounts.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating account store: %w", err)
	}
	saves, err := c.Saves.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating save store: %w", err)
	}

	return assets.NewDirectory(accounts, saves), nil
}

func (c *StorageConfig) BuildZoneManager() (*zones.ZoneManager, error) {
	store, err := c.Zones.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating zone store: %w", err)
	}

	zm := zones.NewZoneManager()
	err = assets.BuildZones(context.Background(), zm, store.GetAll())
	if err != nil {
		return nil, fmt.Errorf("building zones: %w", err)
	}

	return zm, nil
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}
