// Package intent models the structured financing intent the advisor builds
// up turn by turn from free-text utterances. An Intent has four optional
// slots; extraction only ever fills or overwrites slots with more specific
// values, never clears them (monotonic accumulation).
package intent

import "strings"

// PropertyType classifies the subject property.
type PropertyType string

// Purpose classifies what the borrower plans to do with the property.
type Purpose string

// Timeline classifies how quickly the borrower needs financing.
type Timeline string

const (
	PropertyUnspecified PropertyType = "unspecified"
	PropertyResidential PropertyType = "residential"
	PropertyMultifamily PropertyType = "multifamily"
	PropertyCommercial  PropertyType = "commercial"

	PurposeUnspecified     Purpose = "unspecified"
	PurposeFixAndFlip      Purpose = "fix-and-flip"
	PurposeRentalIncome    Purpose = "rental-income"
	PurposeNewConstruction Purpose = "new-construction"

	TimelineUnspecified Timeline = "unspecified"
	TimelineShortTerm   Timeline = "short-term"
	TimelineLongTerm    Timeline = "long-term"
)

// Slot names, in the fixed priority order used when asking the borrower for
// missing information.
const (
	SlotPropertyType = "propertyType"
	SlotPurpose      = "purpose"
	SlotTimeline     = "timeline"
	SlotLocation     = "location"
)

// Intent is the accumulated structured view of a conversation. The zero
// value is usable; empty strings are treated as unspecified.
type Intent struct {
	PropertyType PropertyType `json:"property_type"`
	Purpose      Purpose      `json:"purpose"`
	Timeline     Timeline     `json:"timeline"`
	Location     string       `json:"location,omitempty"`
}

// Empty returns an Intent with every slot explicitly unspecified.
func Empty() Intent {
	return Intent{
		PropertyType: PropertyUnspecified,
		Purpose:      PurposeUnspecified,
		Timeline:     TimelineUnspecified,
	}
}

// HasPropertyType reports whether the property-type slot is set.
func (i Intent) HasPropertyType() bool {
	return i.PropertyType != "" && i.PropertyType != PropertyUnspecified
}

// HasPurpose reports whether the purpose slot is set.
func (i Intent) HasPurpose() bool {
	return i.Purpose != "" && i.Purpose != PurposeUnspecified
}

// HasTimeline reports whether the timeline slot is set.
func (i Intent) HasTimeline() bool {
	return i.Timeline != "" && i.Timeline != TimelineUnspecified
}

// HasLocation reports whether the location slot is set.
func (i Intent) HasLocation() bool {
	return strings.TrimSpace(i.Location) != ""
}

// Merge folds a freshly extracted delta into the prior intent. A specified
// value in delta overwrites the prior slot; an unspecified delta slot never
// erases a previously set value.
func (i Intent) Merge(delta Intent) Intent {
	out := i.normalized()
	if delta.HasPropertyType() {
		out.PropertyType = delta.PropertyType
	}
	if delta.HasPurpose() {
		out.Purpose = delta.Purpose
	}
	if delta.HasTimeline() {
		out.Timeline = delta.Timeline
	}
	if delta.HasLocation() {
		out.Location = delta.Location
	}
	return out
}

// MissingSlots names the unset slots in fixed priority order:
// propertyType, purpose, timeline, location.
func (i Intent) MissingSlots() []string {
	var missing []string
	if !i.HasPropertyType() {
		missing = append(missing, SlotPropertyType)
	}
	if !i.HasPurpose() {
		missing = append(missing, SlotPurpose)
	}
	if !i.HasTimeline() {
		missing = append(missing, SlotTimeline)
	}
	if !i.HasLocation() {
		missing = append(missing, SlotLocation)
	}
	return missing
}

// normalized maps zero-value slots to their explicit unspecified constants.
func (i Intent) normalized() Intent {
	if i.PropertyType == "" {
		i.PropertyType = PropertyUnspecified
	}
	if i.Purpose == "" {
		i.Purpose = PurposeUnspecified
	}
	if i.Timeline == "" {
		i.Timeline = TimelineUnspecified
	}
	return i
}
