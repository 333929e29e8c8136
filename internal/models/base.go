package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wfunc/fairness-engine/internal/game/fairness"
)

// BaseModel 公共字段
type BaseModel struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// OutcomeList 以 JSON 存储的奖项表
type OutcomeList []fairness.Outcome

// Value 实现 driver.Valuer
func (l OutcomeList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]fairness.Outcome(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (l *OutcomeList) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("OutcomeList: 不支持的类型 %T", value)
	}
	return json.Unmarshal(data, (*[]fairness.Outcome)(l))
}
