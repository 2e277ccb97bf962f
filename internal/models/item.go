package models

type Item struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	IsActive bool   `yaml:"is_active" json:"is_active"`
}
