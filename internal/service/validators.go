package service

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidateLuhn validates a card number using the Luhn algorithm
func ValidateLuhn(cardNumber string) error {
	var digits []int
	for _, r := range cardNumber {
		if r < '0' || r > '9' {
			return fmt.Errorf("invalid card number: must contain only digits")
		}
		digits = append(digits, int(r-'0'))
	}

	if len(digits) < 13 || len(digits) > 19 {
		return fmt.Errorf("invalid card number length: must be 13-19 digits")
	}

	sum := 0
	isSecond := false

	for i := len(digits) - 1; i >= 0; i-- {
		digit := digits[i]

		if isSecond {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}

		sum += digit
		isSecond = !isSecond
	}

	if sum%10 != 0 {
		return fmt.Errorf("invalid card number: failed Luhn check")
	}

	return nil
}

// maxMoney is the exclusive bound of a NUMERIC(19,2) column.
var maxMoney = decimal.New(1, 17)

func checkMoney(field string, v decimal.Decimal) error {
	if !v.Equal(v.Round(2)) {
		return fmt.Errorf("invalid %s: at most 2 decimal places allowed", field)
	}
	if v.Abs().GreaterThanOrEqual(maxMoney) {
		return fmt.Errorf("invalid %s: must be less than %s in magnitude", field, maxMoney)
	}
	return nil
}

// ValidateAmount checks that a payment amount is positive with at most two decimal places
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("invalid amount: must be greater than 0")
	}
	return checkMoney("amount", amount)
}

// ValidateCreditLimit checks that a credit limit is non-negative with at most two decimal places
func ValidateCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return fmt.Errorf("invalid credit limit: must not be negative")
	}
	return checkMoney("credit limit", limit)
}

// ValidateBalance checks that a balance has at most two decimal places and fits the ledger column
func ValidateBalance(balance decimal.Decimal) error {
	return checkMoney("balance", balance)
}
