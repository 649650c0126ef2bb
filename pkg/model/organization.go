// Package model 定义月度排班引擎的核心数据模型
package model

// Organization 组织（门店/站点）
type Organization struct {
	BaseModel
	Name string `json:"name" db:"name"`
	Code string `json:"code" db:"code"`

	// 排班相关设置（营业时间、连续工作上限等）
	Settings OrgSettings `json:"settings" db:"settings"`
}
