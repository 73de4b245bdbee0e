package checkout

import (
	"time"

	"github.com/jcmexdev/storefront/internal/storefront/core/domain/entity"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// validate checks the form against the current time. Dates and times are read
// in the location of now.
func validate(d entity.FulfillmentDetails, cartLen int, now time.Time) error {
	if !d.Complete() {
		return &ValidationError{Title: "Missing Info", Message: "Please fill pickup date, time, and contact number."}
	}
	if !d.PaymentMethod.Valid() {
		return &ValidationError{Title: "Invalid Payment Method", Message: "Please choose cash or online payment."}
	}

	date, err := time.ParseInLocation(dateLayout, d.PickupDate, now.Location())
	if err != nil {
		return &ValidationError{Title: "Invalid Date", Message: "Please enter the pickup date as YYYY-MM-DD."}
	}
	clock, err := time.Parse(timeLayout, d.PickupTime)
	if err != nil {
		return &ValidationError{Title: "Invalid Time", Message: "Please enter the pickup time as HH:MM."}
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return &ValidationError{Title: "Invalid Date", Message: "Please select today or a future date for pickup."}
	}
	if date.Equal(today) {
		pickup := today.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute)
		if pickup.Before(now.Truncate(time.Minute)) {
			return &ValidationError{Title: "Invalid Time", Message: "Please select a pickup time later than now."}
		}
	}

	if cartLen == 0 {
		return &ValidationError{Title: "Empty Cart", Message: "Add items to your cart before checking out."}
	}
	return nil
}
