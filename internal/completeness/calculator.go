// Package completeness computes, for every channel and locale, how many of the
// attributes a family requires are filled on a product.
package completeness

import (
	"variants-service/internal/models"
)

// Calculator computes product completenesses from family requirements
type Calculator struct {
	checker Checker
}

// NewCalculator creates a calculator. A nil checker falls back to DefaultChecker.
func NewCalculator(checker Checker) *Calculator {
	if checker == nil {
		checker = NewDefaultChecker()
	}
	return &Calculator{checker: checker}
}

type channelRequirements struct {
	channel    *models.Channel
	attributes []*models.Attribute
}

// Compute returns one completeness per channel and locale of the family requirements.
// values must already contain the values inherited from the product ancestors.
func (c *Calculator) Compute(product *models.Product, family *models.Family, values models.ValueCollection) []models.Completeness {
	if family == nil {
		return []models.Completeness{}
	}

	grouped := groupByChannel(family.Requirements)
	completenesses := make([]models.Completeness, 0)
	for _, group := range grouped {
		for _, locale := range group.channel.Locales {
			missing := 0
			for _, attribute := range group.attributes {
				if !c.isFilled(values, attribute, group.channel, locale) {
					missing++
				}
			}
			completenesses = append(completenesses, models.Completeness{
				ProductID:     product.ID,
				ChannelCode:   group.channel.Code,
				LocaleCode:    locale,
				MissingCount:  missing,
				RequiredCount: len(group.attributes),
			})
		}
	}
	return completenesses
}

func (c *Calculator) isFilled(values models.ValueCollection, attribute *models.Attribute, channel *models.Channel, locale string) bool {
	scope, loc := "", ""
	if attribute.Scopable {
		scope = channel.Code
	}
	if attribute.Localizable {
		loc = locale
	}
	value, ok := values.Get(attribute.Code, scope, loc)
	if !ok {
		return false
	}
	return c.checker.IsComplete(value, channel)
}

// groupByChannel keeps the required attributes per channel, channels in order of first appearance
func groupByChannel(requirements []models.AttributeRequirement) []*channelRequirements {
	var ordered []*channelRequirements
	index := make(map[string]*channelRequirements)
	for i := range requirements {
		req := &requirements[i]
		if !req.Required {
			continue
		}
		group, ok := index[req.ChannelCode]
		if !ok {
			channel := req.Channel
			if channel == nil {
				channel = &models.Channel{Code: req.ChannelCode}
			}
			group = &channelRequirements{channel: channel}
			index[req.ChannelCode] = group
			ordered = append(ordered, group)
		}
		attribute := req.Attribute
		if attribute == nil {
			attribute = &models.Attribute{Code: req.AttributeCode}
		}
		group.attributes = append(group.attributes, attribute)
	}
	return ordered
}
