package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Databases      Databases      `yaml:"databases"`
	ReportSettings ReportSettings `yaml:"report_settings"`
	Thresholds     Thresholds     `yaml:"thresholds"`
}

type Databases struct {
	Postgres string `yaml:"postgres"`
	MySQL    string `yaml:"mysql"`
	Mongo    string `yaml:"mongo"`
}

type ReportSettings struct {
	TopCustomers      int `yaml:"top_customers"`
	ProfileIterations int `yaml:"profile_iterations"`
}

// Thresholds drive the rule-based recommendation labels. Rates are
// percentages except PurchaseViewRatio, which is a plain ratio.
type Thresholds struct {
	HighRevenuePerUser   float64 `yaml:"high_revenue_per_user"`
	MediumRevenuePerUser float64 `yaml:"medium_revenue_per_user"`
	PurchaseViewRatio    float64 `yaml:"purchase_view_ratio"`
	AbandonmentRate      float64 `yaml:"abandonment_rate"`
}

func Default() *Config {
	return &Config{
		ReportSettings: ReportSettings{
			TopCustomers:      20,
			ProfileIterations: 50,
		},
		Thresholds: Thresholds{
			HighRevenuePerUser:   20,
			MediumRevenuePerUser: 15,
			PurchaseViewRatio:    0.10,
			AbandonmentRate:      50,
		},
	}
}

func LoadConfig(path string) (*Config, error) {
	config := Default()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, err
	}

	if config.ReportSettings.TopCustomers <= 0 {
		config.ReportSettings.TopCustomers = 20
	}
	if config.ReportSettings.ProfileIterations <= 0 {
		config.ReportSettings.ProfileIterations = 50
	}

	return config, nil
}
