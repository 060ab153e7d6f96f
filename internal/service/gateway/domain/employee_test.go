package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validEmployee = `{
	"ID": 1,
	"NAME": "Asha",
	"GENDER": "FEMALE",
	"DOB": "1990-04-12",
	"DOJ": "2020-01-06",
	"DEPARTMENT": "IT",
	"DESIGNATION": "Engineer",
	"SALARY": 50000,
	"PHONE": "9876543210",
	"EMAIL": "asha@example.com"
}`

func TestDecodeEmployee(t *testing.T) {
	e, err := DecodeEmployee([]byte(validEmployee))
	require.NoError(t, err)

	assert.Equal(t, 1, e.ID)
	assert.Equal(t, "Asha", e.Name)
	assert.Equal(t, GenderFemale, e.Gender)
	assert.Equal(t, NewDate(1990, time.April, 12), e.DOB)
	assert.Equal(t, NewDate(2020, time.January, 6), e.DOJ)
	assert.Equal(t, 50000, e.Salary)
	assert.Equal(t, "asha@example.com", e.Email)
}

func TestDecodeEmployeeCoercesIntegers(t *testing.T) {
	body := replaceField(t, validEmployee, "SALARY", " 50000 ")
	body = strings.Replace(body, `"ID":1`, `"ID":7.0`, 1)

	e, err := DecodeEmployee([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, 50000, e.Salary)
	assert.Equal(t, 7, e.ID)
}

func TestDecodeEmployeeRejects(t *testing.T) {
	tt := []struct {
		test  string
		field string
		value any
		rule  string
	}{
		{"gender outside enum", "GENDER", "male", RuleEnum},
		{"unknown gender", "GENDER", "UNKNOWN", RuleEnum},
		{"email without domain", "EMAIL", "asha@", RuleEmail},
		{"email without at", "EMAIL", "asha.example.com", RuleEmail},
		{"salary with fraction", "SALARY", 500.5, RuleIntType},
		{"salary not numeric", "SALARY", "lots", RuleIntType},
		{"salary bool", "SALARY", true, RuleIntType},
		{"salary past int64", "SALARY", json.Number("9223372036854775808"), RuleIntType},
		{"salary past int64 exponent", "SALARY", json.Number("9.223372036854775808e18"), RuleIntType},
		{"salary below int64", "SALARY", json.Number("-9.3e18"), RuleIntType},
		{"id null", "ID", nil, RuleIntType},
		{"name number", "NAME", 42, RuleStringType},
		{"dob wrong layout", "DOB", "12/04/1990", RuleDateType},
		{"doj impossible date", "DOJ", "2020-02-30", RuleDateType},
		{"doj number", "DOJ", 20200101, RuleDateType},
	}
	for _, tc := range tt {
		t.Run(tc.test, func(t *testing.T) {
			_, err := DecodeEmployee([]byte(replaceField(t, validEmployee, tc.field, tc.value)))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Truef(t, verr.HasRule(tc.field, tc.rule), "got %v", verr.Fields)
			assert.Len(t, verr.Fields, 1)
		})
	}
}

func TestDecodeEmployeeEnumeratesEveryMissingField(t *testing.T) {
	_, err := DecodeEmployee([]byte(`{"ID": 1, "GENDER": "ROBOT"}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	for _, field := range []string{"NAME", "DOB", "DOJ", "DEPARTMENT", "DESIGNATION", "SALARY", "PHONE", "EMAIL"} {
		assert.Truef(t, verr.HasRule(field, RuleMissing), "expected %s missing", field)
	}
	assert.True(t, verr.HasRule("GENDER", RuleEnum))
	// EMAIL 已经报了 missing，不再重复报 email
	assert.False(t, verr.HasRule("EMAIL", RuleEmail))
}

func TestDecodeEmployeeBody(t *testing.T) {
	_, err := DecodeEmployee([]byte(`{"ID": 1,`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasRule("body", RuleJSONInvalid))

	for _, body := range []string{`[1,2]`, `"employee"`, `null`} {
		_, err = DecodeEmployee([]byte(body))
		require.ErrorAs(t, err, &verr, body)
		assert.True(t, verr.HasRule("body", RuleObjectType), body)
	}
}

func TestEmployeeMarshalDropsUnknownFields(t *testing.T) {
	body := replaceField(t, validEmployee, "EXTRA", "ignored")
	body = replaceField(t, body, "SALARY", "50000")

	e, err := DecodeEmployee([]byte(body))
	require.NoError(t, err)

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, validEmployee, string(out))
}

func TestDecodePromotion(t *testing.T) {
	p, err := DecodePromotion([]byte(`{
		"ID": 3,
		"NAME": "Ravi",
		"CURR_DESIGNATION": "Engineer",
		"CURR_SALARY": "60000",
		"ELIGIBLE_PROMOTION": "Senior Engineer"
	}`))
	require.NoError(t, err)
	assert.Equal(t, &Promotion{
		ID:                3,
		Name:              "Ravi",
		CurrDesignation:   "Engineer",
		CurrSalary:        60000,
		EligiblePromotion: "Senior Engineer",
	}, p)

	_, err = DecodePromotion([]byte(`{"ID": "x", "NAME": "Ravi"}`))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, verr.HasRule("ID", RuleIntType))
	assert.True(t, verr.HasRule("CURR_DESIGNATION", RuleMissing))
	assert.True(t, verr.HasRule("CURR_SALARY", RuleMissing))
	assert.True(t, verr.HasRule("ELIGIBLE_PROMOTION", RuleMissing))
	assert.Len(t, verr.Fields, 4)
}

func replaceField(t *testing.T, body, field string, value any) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &m))
	m[field] = value
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}
