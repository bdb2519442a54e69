package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// All settings are environment variables so the service can run unchanged in
// EKS pods and in local docker-compose (LocalStack supplies the AWS side).

type Config struct {
	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	ServerPort string `mapstructure:"SERVER_PORT"`

	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSEndpoint        string `mapstructure:"AWS_ENDPOINT"`
	PayslipSQSQueueURL string `mapstructure:"PAYSLIP_SQS_QUEUE_URL"`
	AlertSQSQueueURL   string `mapstructure:"ALERT_SQS_QUEUE_URL"`

	SenderEmail     string `mapstructure:"SENDER_EMAIL"`
	CompanyName     string `mapstructure:"COMPANY_NAME"`
	PayslipFontPath string `mapstructure:"PAYSLIP_FONT_PATH"`

	EthnicityBonusRate   float64 `mapstructure:"ETHNICITY_BONUS_RATE"`
	EthnicityBonusGroups string  `mapstructure:"ETHNICITY_BONUS_GROUPS"`

	IsLocalDev bool `mapstructure:"IS_LOCAL_DEV"`
}

var ErrMissingSetting = errors.New("config: missing required setting")

// LoadConfig reads configuration from environment variables and validates the
// fields the service cannot run without.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("DB_HOST", "db")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "payroll_db")
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AWS_REGION", "ap-southeast-2")
	viper.SetDefault("AWS_ENDPOINT", "http://localstack:4566")
	viper.SetDefault("PAYSLIP_SQS_QUEUE_URL", "http://localstack:4566/000000000000/payslip-queue")
	viper.SetDefault("ALERT_SQS_QUEUE_URL", "http://localstack:4566/000000000000/alert-queue")
	viper.SetDefault("SENDER_EMAIL", "payroll@example.co.nz")
	viper.SetDefault("COMPANY_NAME", "Aotearoa Holdings Ltd")
	viper.SetDefault("PAYSLIP_FONT_PATH", "")
	viper.SetDefault("ETHNICITY_BONUS_RATE", 0.05)
	viper.SetDefault("ETHNICITY_BONUS_GROUPS", "Māori,Maori")
	viper.SetDefault("IS_LOCAL_DEV", false)

	viper.AutomaticEnv()

	if err = viper.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, config.Validate()
}

// Validate fails fast so a misconfigured pod dies at startup instead of
// failing mid-payroll.
func (c Config) Validate() error {
	required := map[string]string{
		"DB_NAME":               c.DBName,
		"SENDER_EMAIL":          c.SenderEmail,
		"COMPANY_NAME":          c.CompanyName,
		"PAYSLIP_SQS_QUEUE_URL": c.PayslipSQSQueueURL,
		"ALERT_SQS_QUEUE_URL":   c.AlertSQSQueueURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingSetting, name)
		}
	}
	if c.EthnicityBonusRate < 0 {
		return fmt.Errorf("%w: ETHNICITY_BONUS_RATE must not be negative", ErrMissingSetting)
	}
	return nil
}
