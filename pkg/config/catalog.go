package config

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// BranchSeed sucursal de referencia.
type BranchSeed struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// ProductSeed producto de referencia; Cost es el costo unitario en texto decimal.
type ProductSeed struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
	Code string `mapstructure:"code"`
	Cost string `mapstructure:"cost"`
}

// UnitCost interpreta Cost; vacío vale cero.
func (p ProductSeed) UnitCost() (decimal.Decimal, error) {
	if p.Cost == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(p.Cost)
	if err != nil {
		return decimal.Zero, fmt.Errorf("producto %s: costo %q inválido: %w", p.ID, p.Cost, err)
	}
	return d, nil
}

// UserSeed usuario con su rol (admin es privilegiado).
type UserSeed struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
	Role string `mapstructure:"role"`
}

// Catalog datos de referencia que el motor solo consulta.
type Catalog struct {
	Branches []BranchSeed  `mapstructure:"branches"`
	Products []ProductSeed `mapstructure:"products"`
	Users    []UserSeed    `mapstructure:"users"`
}

// LoadCatalog lee el catálogo desde un archivo YAML, JSON o TOML (según la extensión).
func LoadCatalog(path string) (*Catalog, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("leer catálogo %s: %w", path, err)
	}
	var c Catalog
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decodificar catálogo %s: %w", path, err)
	}
	for _, b := range c.Branches {
		if b.ID == "" {
			return nil, fmt.Errorf("catálogo: sucursal sin id")
		}
	}
	for _, p := range c.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("catálogo: producto sin id")
		}
		if _, err := p.UnitCost(); err != nil {
			return nil, err
		}
	}
	return &c, nil
}
