package pipeline

import (
	"regexp"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-autofill/constants"
	"github.com/joseph-ayodele/invoice-autofill/internal/common"
	"github.com/joseph-ayodele/invoice-autofill/internal/fields"
	"github.com/joseph-ayodele/invoice-autofill/internal/provider"
	"github.com/joseph-ayodele/invoice-autofill/internal/textnorm"
)

// matched on the diacritic-free name
var reLegalEntity = regexp.MustCompile(`(?i)\b(kft|zrt|nyrt|rt|bt|szolgaltato)\b`)

const minNameLen = 3

// Inputs is everything the arbitrator weighs. Missing sources are zero FieldSets.
type Inputs struct {
	Evidence map[SourceKind]Evidence
	Hint     *provider.Hint
	// Telecom is set when the telecom signature appears in the raw text.
	Telecom bool
	// CustomModel is set when the document service runs a non-default model id.
	CustomModel bool
	Now         time.Time
}

func (in Inputs) fieldsOf(k SourceKind) fields.FieldSet {
	return in.Evidence[k].Fields
}

// Arbitrate merges the sources field by field. Each field takes the first
// acceptable value in its precedence order. A ValidationError lists the
// mandatory fields still missing.
func Arbitrate(in Inputs) (InvoiceRecord, error) {
	label := in.fieldsOf(SourceLabels)
	ai := in.fieldsOf(SourceAI)
	cloud := in.fieldsOf(SourceCloudDocument)
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}

	// amount: label, then AI only with a currency, then the document service
	// when the text carries the payable label or a custom model is trusted
	amount := label.Amount
	if amount == nil && ai.Amount != nil && ai.Amount.IsPositive() && ai.Currency != nil {
		amount = ai.Amount
	}
	if amount == nil && cloud.Amount != nil && cloud.Amount.IsPositive() {
		trustCloud := in.Evidence[SourceLabels].PayableLabel ||
			(in.Hint != nil && in.Hint.RequiresFallback && in.CustomModel)
		if trustCloud {
			amount = cloud.Amount
		}
	}

	currency := constants.DefaultCurrency
	switch {
	case cloud.Currency != nil:
		currency = *cloud.Currency
	case label.Amount != nil:
		if label.Currency != nil {
			currency = *label.Currency
		}
	case ai.Currency != nil:
		currency = *ai.Currency
	}

	var due *string
	for _, d := range []*string{label.DueDate, cloud.DueDate, ai.DueDate} {
		if d != nil && fields.PlausibleYear(*d, now) {
			due = d
			break
		}
	}

	var name *string
	switch {
	case cloud.ProviderName != nil:
		name = cloud.ProviderName
	case in.Hint != nil && in.Hint.Name != "":
		name = &in.Hint.Name
	case label.ProviderName != nil:
		name = label.ProviderName
	case ai.ProviderName != nil && isLegalEntityName(*ai.ProviderName):
		name = ai.ProviderName
	}
	if in.Telecom {
		canonical := constants.CanonicalTelecomName
		name = &canonical
	}

	var chargeType *constants.ChargeType
	switch {
	case in.Hint != nil:
		chargeType = fields.Type(in.Hint.DefaultType)
	case label.ProviderName != nil:
		chargeType = fields.Type(constants.ChargeUtility)
	default:
		chargeType = ai.ChargeType
	}

	v := common.NewValidator().
		Field("amount", amount, common.Required).
		Field("due_date", due, common.Required).
		Field("name", name, common.Required)
	if err := v.Err(); err != nil {
		return InvoiceRecord{}, err
	}

	return InvoiceRecord{
		Amount:       *amount,
		Currency:     currency,
		DueDate:      *due,
		ProviderName: *name,
		ChargeType:   chargeType,
	}, nil
}

func isLegalEntityName(name string) bool {
	name = strings.TrimSpace(name)
	if len([]rune(name)) < minNameLen {
		return false
	}
	return reLegalEntity.MatchString(textnorm.StripDiacritics(name))
}
