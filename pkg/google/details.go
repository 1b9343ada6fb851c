package google

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/gmaps-contacts/internal/model"
)

var detailFields = []string{"name", "address_component", "formatted_phone_number", "website"}

type addressComponent struct {
	LongName  string   `xml:"long_name"`
	ShortName string   `xml:"short_name"`
	Types     []string `xml:"type"`
}

type detailsResponse struct {
	statusEnvelope
	Result struct {
		Name                 string             `xml:"name"`
		FormattedPhoneNumber string             `xml:"formatted_phone_number"`
		Website              string             `xml:"website"`
		AddressComponents    []addressComponent `xml:"address_component"`
	} `xml:"result"`
}

var nonDigitRe = regexp.MustCompile(`\D`)

func (c *httpClient) Details(ctx context.Context, placeID string) (*model.Row, error) {
	params := url.Values{
		"placeid": {placeID},
		"fields":  {strings.Join(detailFields, ",")},
	}
	var resp detailsResponse
	source, err := c.get(ctx, EndpointDetails, "/place/details/xml", params, &resp)
	if err != nil {
		return nil, err
	}

	r := resp.Result
	addr := mapAddress(r.AddressComponents)
	return &model.Row{
		Establishment: strings.TrimSpace(r.Name),
		PhoneNumber:   nonDigitRe.ReplaceAllString(r.FormattedPhoneNumber, ""),
		Address:       addr.street,
		City:          addr.city,
		State:         addr.state,
		PostalCode:    addr.postalCode,
		Website:       strings.TrimSpace(r.Website),
		DataSource:    source,
	}, nil
}

type address struct {
	street, city, state, postalCode string
}

// mapAddress folds address components into the row's address columns. The
// first type of each component decides its role. City prefers locality,
// then postal_town, then sublocality.
func mapAddress(comps []addressComponent) address {
	var number, route, locality, postalTown, sublocality, suffix string
	var a address
	for _, comp := range comps {
		if len(comp.Types) == 0 {
			continue
		}
		switch comp.Types[0] {
		case "street_number":
			number = comp.LongName
		case "route":
			route = comp.LongName
		case "locality":
			locality = comp.LongName
		case "postal_town":
			postalTown = comp.LongName
		case "sublocality", "sublocality_level_1":
			sublocality = comp.LongName
		case "administrative_area_level_1":
			a.state = comp.ShortName
		case "postal_code":
			a.postalCode = comp.LongName
		case "postal_code_suffix":
			suffix = comp.LongName
		}
	}

	a.street = strings.TrimSpace(number + " " + route)
	switch {
	case locality != "":
		a.city = locality
	case postalTown != "":
		a.city = postalTown
	default:
		a.city = sublocality
	}
	if a.postalCode != "" && suffix != "" {
		a.postalCode += "-" + suffix
	}
	return a
}
