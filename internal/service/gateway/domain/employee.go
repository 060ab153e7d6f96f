package domain

import (
	"encoding/json"
	"time"
)

// Gender 是员工性别的枚举
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

// DateLayout 是请求体和转发体中日期字段的格式
const DateLayout = "2006-01-02"

// Date 是不带时间部分的日历日期
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.Format(DateLayout) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

// Employee 是新增/更新员工的请求体。所有字段都必填。
type Employee struct {
	ID          int    `json:"ID"`
	Name        string `json:"NAME"`
	Gender      Gender `json:"GENDER" validate:"oneof=MALE FEMALE OTHER"`
	DOB         Date   `json:"DOB"`
	DOJ         Date   `json:"DOJ"`
	Department  string `json:"DEPARTMENT"`
	Designation string `json:"DESIGNATION"`
	Salary      int    `json:"SALARY"`
	Phone       string `json:"PHONE"`
	Email       string `json:"EMAIL" validate:"email"`
}

// Promotion 是新增晋升记录的请求体。所有字段都必填。
type Promotion struct {
	ID                int    `json:"ID"`
	Name              string `json:"NAME"`
	CurrDesignation   string `json:"CURR_DESIGNATION"`
	CurrSalary        int    `json:"CURR_SALARY"`
	EligiblePromotion string `json:"ELIGIBLE_PROMOTION"`
}

// DecodeEmployee 把请求体解析并校验为 Employee。
// 失败时返回 *ValidationError，列出所有不合法的字段。
func DecodeEmployee(body []byte) (*Employee, error) {
	d, err := newFieldDecoder(body)
	if err != nil {
		return nil, err
	}
	e := &Employee{
		ID:          d.Int("ID"),
		Name:        d.String("NAME"),
		Gender:      Gender(d.String("GENDER")),
		DOB:         d.Date("DOB"),
		DOJ:         d.Date("DOJ"),
		Department:  d.String("DEPARTMENT"),
		Designation: d.String("DESIGNATION"),
		Salary:      d.Int("SALARY"),
		Phone:       d.String("PHONE"),
		Email:       d.String("EMAIL"),
	}
	if err := d.finish(e); err != nil {
		return nil, err
	}
	return e, nil
}

// DecodePromotion 把请求体解析并校验为 Promotion。
func DecodePromotion(body []byte) (*Promotion, error) {
	d, err := newFieldDecoder(body)
	if err != nil {
		return nil, err
	}
	p := &Promotion{
		ID:                d.Int("ID"),
		Name:              d.String("NAME"),
		CurrDesignation:   d.String("CURR_DESIGNATION"),
		CurrSalary:        d.Int("CURR_SALARY"),
		EligiblePromotion: d.String("ELIGIBLE_PROMOTION"),
	}
	if err := d.finish(p); err != nil {
		return nil, err
	}
	return p, nil
}
