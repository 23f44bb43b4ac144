package configuration

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/variantlab/configcore/pkg/domain"
	"gorm.io/gorm"
)

// Audit detail groups written during external save calls.
const (
	AuditGroupRequest  = "request"
	AuditGroupResponse = "response"
	AuditGroupError    = "error"
	AuditGroupSupplier = "supplier"
)

// AuditDetail is one entry of the audit trail attached to a persisted
// configuration: the request sent to a save integration, the raw response,
// an extracted supplier id, or the error that aborted the call.
type AuditDetail struct {
	ID        uuid.UUID `json:"id"`
	Group     string    `json:"group"`
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

type AuditTrailJSON []AuditDetail

func (a AuditTrailJSON) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *AuditTrailJSON) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("expected []byte, got %T", value)
	}
	return json.Unmarshal(bytes, a)
}

type Configuration struct {
	ID                uint64                `json:"id" gorm:"primaryKey;autoIncrement"`
	UUID              uuid.UUID             `json:"uuid" gorm:"type:uuid"`
	ConfiguratorID    uint64                `json:"configurator_id" gorm:"index"`
	ParentID          uint64                `json:"parent_id"`
	Quantity          int                   `json:"quantity"`
	PurchasePrice     float64               `json:"purchase_price"`
	CustomerPrice     float64               `json:"customer_price"`
	FromPrice         float64               `json:"from_price"`
	DeliveryTime      string                `json:"delivery_time"`
	DeliveryTimeExtra string                `json:"delivery_time_extra"`
	Image             string                `json:"image"`
	Extra             domain.PropertiesJSON `json:"extra" gorm:"type:jsonb"`
	AuditTrail        AuditTrailJSON        `json:"audit_trail" gorm:"type:jsonb"`
	Lines             []ConfigurationLine   `json:"lines" gorm:"foreignKey:ConfigurationID"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

func (c *Configuration) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	return nil
}

func (c *Configuration) BeforeUpdate(tx *gorm.DB) error {
	c.UpdatedAt = time.Now()
	return nil
}

func (c *Configuration) TableName() string {
	return "public.configurations"
}

// AppendAudit adds one entry to the audit trail. The trail only grows; a
// failed external call never removes what was recorded before it.
func (c *Configuration) AppendAudit(group, key, value string) {
	c.AuditTrail = append(c.AuditTrail, AuditDetail{
		ID:        uuid.New(),
		Group:     group,
		Key:       key,
		Value:     value,
		CreatedAt: time.Now(),
	})
}

// ConfigurationLine is one selected item of a persisted configuration.
type ConfigurationLine struct {
	ID              uint64               `json:"id" gorm:"primaryKey;autoIncrement"`
	ConfigurationID uint64               `json:"configuration_id" gorm:"index"`
	ItemID          string               `json:"item_id"`
	Name            string               `json:"name"`
	ValueName       string               `json:"value_name"`
	Value           string               `json:"value"`
	MainStep        string               `json:"main_step"`
	Step            string               `json:"step"`
	SubStep         string               `json:"sub_step"`
	Extra           domain.ExtraDataJSON `json:"extra" gorm:"type:jsonb"`
	CreatedAt       time.Time            `json:"created_at"`
}

func (l *ConfigurationLine) BeforeCreate(tx *gorm.DB) error {
	l.CreatedAt = time.Now()
	return nil
}

func (l *ConfigurationLine) TableName() string {
	return "public.configuration_lines"
}
