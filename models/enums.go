package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mmdatafocus/fintech_backend/utils"
	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountTypeChecking      AccountType = "Checking"
	AccountTypeSavings       AccountType = "Savings"
	AccountTypeCredit        AccountType = "Credit"
	AccountTypeInvestment    AccountType = "Investment"
	AccountTypeLoan          AccountType = "Loan"
	AccountTypeBusiness      AccountType = "Business"
	AccountTypeJoint         AccountType = "Joint"
	AccountTypeCash          AccountType = "Cash"
	AccountTypeEmergencyFund AccountType = "EmergencyFund"
	AccountTypeRetirement    AccountType = "Retirement"
)

var accountTypes = map[string]AccountType{
	"Checking":      AccountTypeChecking,
	"Savings":       AccountTypeSavings,
	"Credit":        AccountTypeCredit,
	"Investment":    AccountTypeInvestment,
	"Loan":          AccountTypeLoan,
	"Business":      AccountTypeBusiness,
	"Joint":         AccountTypeJoint,
	"Cash":          AccountTypeCash,
	"EmergencyFund": AccountTypeEmergencyFund,
	"Retirement":    AccountTypeRetirement,
}

func (t AccountType) IsValid() bool {
	_, ok := accountTypes[string(t)]
	return ok
}

// convert input to enum type
func (t *AccountType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("account type must be string")
	}
	v, ok := accountTypes[str]
	if !ok {
		return fmt.Errorf("invalid account type %q", str)
	}
	*t = v
	return nil
}

type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
	CurrencyCHF Currency = "CHF"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
)

var currencies = map[string]Currency{
	"USD": CurrencyUSD,
	"EUR": CurrencyEUR,
	"GBP": CurrencyGBP,
	"JPY": CurrencyJPY,
	"CHF": CurrencyCHF,
	"CAD": CurrencyCAD,
	"AUD": CurrencyAUD,
}

func (c Currency) IsValid() bool {
	_, ok := currencies[string(c)]
	return ok
}

func (c *Currency) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("currency must be string")
	}
	v, ok := currencies[str]
	if !ok {
		return fmt.Errorf("invalid currency %q", str)
	}
	*c = v
	return nil
}

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "Income"
	TransactionTypeExpense TransactionType = "Expense"
)

func (t TransactionType) IsValid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// SignedAmount is the balance contribution of amount under t: +amount for
// Income, -amount for Expense. It is the only place transaction types are
// interpreted; anything else is an invalid operation.
func (t TransactionType) SignedAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	switch t {
	case TransactionTypeIncome:
		return amount, nil
	case TransactionTypeExpense:
		return amount.Neg(), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unknown transaction type %q", utils.ErrorInvalidOperation, t)
	}
}

func (t *TransactionType) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return errors.New("transaction type must be string")
	}
	switch str {
	case "Income":
		*t = TransactionTypeIncome
	case "Expense":
		*t = TransactionTypeExpense
	default:
		return fmt.Errorf("invalid transaction type %q", str)
	}
	return nil
}

// ParseTransactionType is for query strings; unknown values are an invalid operation.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown transaction type %q", utils.ErrorInvalidOperation, s)
	}
	return t, nil
}
