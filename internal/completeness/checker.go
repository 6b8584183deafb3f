package completeness

import (
	"reflect"
	"strings"

	"variants-service/internal/models"
)

// Checker decides whether a present value counts as filled for a channel
type Checker interface {
	IsComplete(value models.Value, channel *models.Channel) bool
}

// DefaultChecker handles the value shapes produced by the catalog attribute types
type DefaultChecker struct{}

// NewDefaultChecker creates the default value checker
func NewDefaultChecker() *DefaultChecker {
	return &DefaultChecker{}
}

func (c *DefaultChecker) IsComplete(value models.Value, channel *models.Channel) bool {
	if isEmpty(value.Data) {
		return false
	}

	switch data := value.Data.(type) {
	case []interface{}:
		if looksLikePrices(data) {
			return hasAllCurrencies(data, channel)
		}
	case map[string]interface{}:
		if _, ok := data["unit"]; ok {
			return !isEmpty(data["amount"]) && !isEmpty(data["unit"])
		}
		if _, ok := data["amount"]; ok {
			return !isEmpty(data["amount"])
		}
	}
	return true
}

func isEmpty(data interface{}) bool {
	if data == nil {
		return true
	}
	if s, ok := data.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// looksLikePrices reports whether a list is a price collection ({currency, amount} items)
func looksLikePrices(items []interface{}) bool {
	for _, item := range items {
		price, ok := item.(map[string]interface{})
		if !ok {
			return false
		}
		if _, ok := price["currency"]; !ok {
			return false
		}
	}
	return true
}

// hasAllCurrencies requires a filled amount for every currency activated on the channel
func hasAllCurrencies(prices []interface{}, channel *models.Channel) bool {
	if channel == nil || len(channel.Currencies) == 0 {
		return true
	}
	filled := make(map[string]bool, len(prices))
	for _, item := range prices {
		price := item.(map[string]interface{})
		currency, _ := price["currency"].(string)
		if !isEmpty(price["amount"]) {
			filled[currency] = true
		}
	}
	for _, currency := range channel.Currencies {
		if !filled[currency] {
			return false
		}
	}
	return true
}
