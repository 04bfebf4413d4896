// Package validation checks parcels, shipments and tariffs against the
// shipping constraint table. Every rule is evaluated independently and all
// violations are reported together.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/colisapp/shipping-core/internal/core/domain"
)

// Struct-level rule tags.
const (
	tagDimensionSum = "dimsum"
	tagLargestSide  = "maxside"
	tagMinVolume    = "minvolume"
)

// Messages surfaced to callers, one per rule.
const (
	MsgHeightPositive = "height must be positive"
	MsgWidthPositive  = "width must be positive"
	MsgLengthPositive = "length must be positive"
	MsgWeightRange    = "weight must be between 1 and 70 kg"
	MsgDimensionSum   = "sum of dimensions must be less than 360 cm"
	MsgLargestSide    = "largest side must be at most 120 cm"
	MsgMinVolume      = "volume must be at least 1728 cm³"

	MsgNoParcels      = "at least one parcel is required"
	MsgTooManyParcels = "a shipment holds at most 5 parcels"
	MsgShipmentWeight = "total weight must be at most 70 kg"
	MsgShipmentVolume = "total sum of dimensions must be at most 360 cm"
)

// Validator wraps go-playground/validator with the parcel geometry rules registered.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator ready for use. It is safe for concurrent use.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(parcelGeometry, domain.Parcel{})
	return &Validator{v: v}
}

// parcelGeometry reports the rules that span several dimensions.
func parcelGeometry(sl validator.StructLevel) {
	p, ok := sl.Current().Interface().(domain.Parcel)
	if !ok {
		return
	}
	if p.DimensionSum() >= domain.MaxParcelDimensionSum {
		sl.ReportError(p.DimensionSum(), "Dimensions", "Dimensions", tagDimensionSum, "")
	}
	if p.LargestSide() > domain.MaxParcelSide {
		sl.ReportError(p.LargestSide(), "Dimensions", "Dimensions", tagLargestSide, "")
	}
	if p.Volume() < domain.MinParcelVolume {
		sl.ReportError(p.Volume(), "Volume", "Volume", tagMinVolume, "")
	}
}

// Parcel validates a single parcel. It returns nil or a *domain.ValidationError.
func (val *Validator) Parcel(p domain.Parcel) error {
	violations, err := val.parcelViolations(p)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		return domain.NewValidationError(violations...)
	}
	return nil
}

// Shipment validates every parcel and the shipment-level limits.
// Per-parcel violations are prefixed with the parcel index.
func (val *Validator) Shipment(parcels []domain.Parcel) error {
	var violations []string

	switch {
	case len(parcels) == 0:
		violations = append(violations, MsgNoParcels)
	case len(parcels) > domain.ColisMaxPerEnvoi:
		violations = append(violations, MsgTooManyParcels)
	}

	var totalWeight, totalDimensions float64
	for i, p := range parcels {
		pv, err := val.parcelViolations(p)
		if err != nil {
			return err
		}
		for _, msg := range pv {
			violations = append(violations, fmt.Sprintf("parcel[%d]: %s", i, msg))
		}
		totalWeight += p.Weight
		totalDimensions += p.DimensionSum()
	}

	if totalWeight > domain.MaxEnvoiWeight {
		violations = append(violations, MsgShipmentWeight)
	}
	if totalDimensions > domain.MaxEnvoiVolume {
		violations = append(violations, MsgShipmentVolume)
	}

	if len(violations) > 0 {
		return domain.NewValidationError(violations...)
	}
	return nil
}

// Tariff checks the rate bounds of a tariff snapshot.
func (val *Validator) Tariff(t domain.Tariff) error {
	if err := val.v.Struct(t); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("%s out of bounds (%s=%s)", strings.ToLower(fe.Field()), fe.Tag(), fe.Param()))
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidTariff, strings.Join(msgs, "; "))
	}
	return nil
}

func (val *Validator) parcelViolations(p domain.Parcel) ([]string, error) {
	err := val.v.Struct(p)
	if err == nil {
		return nil, nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil, err
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		msgs = append(msgs, parcelMessage(fe))
	}
	return msgs, nil
}

// parcelMessage converts a single FieldError into its rule message.
func parcelMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case tagDimensionSum:
		return MsgDimensionSum
	case tagLargestSide:
		return MsgLargestSide
	case tagMinVolume:
		return MsgMinVolume
	}
	switch fe.Field() {
	case "Height":
		return MsgHeightPositive
	case "Width":
		return MsgWidthPositive
	case "Length":
		return MsgLengthPositive
	case "Weight":
		return MsgWeightRange
	default:
		return fmt.Sprintf("%s failed validation (%s)", strings.ToLower(fe.Field()), fe.Tag())
	}
}
