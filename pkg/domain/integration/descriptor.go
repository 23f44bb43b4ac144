package integration

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/variantlab/configcore/pkg/domain"
)

const (
	KindPricing = "pricing"
	KindSave    = "save"
)

const (
	AuthTypeNone   = ""
	AuthTypeToken  = "token"
	AuthTypeOAuth2 = "oauth2"
)

// ApiDescriptor describes one configured outbound integration: a pricing
// call contributing to the computed price, or a save call driven after a
// configuration is persisted. Endpoint, body template and auth value may
// contain {placeholder} tokens resolved per request.
type ApiDescriptor struct {
	ID             uint64                `json:"id" gorm:"primaryKey;autoIncrement"`
	ConfiguratorID uint64                `json:"configurator_id" gorm:"index"`
	Kind           string                `json:"kind"`
	Name           string                `json:"name"`
	Endpoint       string                `json:"endpoint"`
	Method         string                `json:"method"`
	BodyTemplate   string                `json:"body_template"`
	AuthType       string                `json:"auth_type"`
	AuthValue      string                `json:"auth_value"`
	LookupQuery    string                `json:"lookup_query"`
	Settings       domain.PropertiesJSON `json:"settings" gorm:"type:jsonb"`
}

func (d *ApiDescriptor) TableName() string {
	return "public.api_descriptors"
}

// PricePaths are the dotted key-paths into a pricing response identifying
// the three price components.
type PricePaths struct {
	Purchase string `mapstructure:"purchase_price_path"`
	Customer string `mapstructure:"customer_price_path"`
	From     string `mapstructure:"from_price_path"`
}

func (p PricePaths) Complete() bool {
	return p.Purchase != "" && p.Customer != "" && p.From != ""
}

// PricePaths decodes the price key-paths out of the descriptor settings.
func (d *ApiDescriptor) PricePaths() (PricePaths, error) {
	var paths PricePaths
	if err := mapstructure.Decode(map[string]interface{}{
		"purchase_price_path": d.Settings["purchase_price_path"],
		"customer_price_path": d.Settings["customer_price_path"],
		"from_price_path":     d.Settings["from_price_path"],
	}, &paths); err != nil {
		return PricePaths{}, fmt.Errorf("failed to decode price paths: %w", err)
	}
	return paths, nil
}

// SupplierIDPath is the dotted key-path into a save response holding the
// supplier-assigned id, empty when not configured.
func (d *ApiDescriptor) SupplierIDPath() string {
	if d.Settings == nil {
		return ""
	}
	return d.Settings["supplier_id_path"]
}

// RetryPolicy controls the gateway's retry loop: up to Count additional
// attempts with a fixed Delay between them, triggered only by the listed
// HTTP status codes. A Count of zero disables retrying.
type RetryPolicy struct {
	Count    int
	Delay    time.Duration
	Statuses []int
}

func (p RetryPolicy) ShouldRetry(statusCode int) bool {
	if p.Count <= 0 {
		return false
	}
	for _, s := range p.Statuses {
		if s == statusCode {
			return true
		}
	}
	return false
}
