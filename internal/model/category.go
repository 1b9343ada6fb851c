package model

import (
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
)

var categories = []string{
	"accounting", "airport", "amusement_park", "aquarium",
	"art_gallery", "atm", "bakery", "bank", "bar",
	"beauty_salon", "bicycle_store", "book_store",
	"bowling_alley", "bus_station", "cafe", "campground",
	"car_dealer", "car_rental", "car_repair", "car_wash",
	"casino", "cemetery", "church", "city_hall",
	"clothing_store", "convenience_store", "courthouse",
	"dentist", "department_store", "doctor", "electrician",
	"electronics_store", "embassy", "fire_station",
	"florist", "funeral_home", "furniture_store",
	"gas_station", "gym", "hair_care", "hardware_store",
	"hindu_temple", "home_goods_store", "hospital",
	"insurance_agency", "jewelry_store", "laundry",
	"lawyer", "library", "light_rail_station",
	"liquor_store", "local_government_office",
	"locksmith", "lodging", "meal_delivery",
	"meal_takeaway", "mosque", "movie_rental",
	"movie_theater", "moving_company", "museum",
	"night_club", "painter", "park", "parking", "pet_store",
	"pharmacy", "physiotherapist", "plumber", "police",
	"post_office", "real_estate_agency", "restaurant",
	"roofing_contractor", "rv_park", "school", "shoe_store",
	"shopping_mall", "spa", "stadium", "storage", "store",
	"subway_station", "synagogue", "taxi_stand",
	"train_station", "transit_station", "travel_agency",
	"university", "veterinary_care", "zoo",
}

var stateCodes = []string{
	"AA", "AK", "AL", "AP", "AR", "AZ", "CA", "CO", "CT",
	"DC", "DE", "FL", "FM", "GA", "HI", "IA", "ID", "IL",
	"IN", "KS", "KY", "LA", "MA", "MD", "ME", "MH", "MI",
	"MN", "MO", "MP", "MS", "MT", "NC", "ND", "NE", "NH",
	"NJ", "NM", "NV", "NY", "OH", "OK", "OR", "PA", "PW",
	"RI", "SC", "SD", "TN", "TX", "UT", "VA", "VT", "WA",
	"WI", "WV", "WY",
}

// Categories returns the Google place types accepted by nearby search.
func Categories() []string { return slices.Clone(categories) }

// StateCodes returns the accepted USPS state and territory codes.
func StateCodes() []string { return slices.Clone(stateCodes) }

// ValidCategory reports whether c is an accepted place type.
func ValidCategory(c string) error {
	if _, ok := slices.BinarySearch(categories, c); !ok {
		return eris.Errorf("model: invalid establishment type %q (see `gmaps-contacts grab --help` for the list)", c)
	}
	return nil
}

// ValidStateCode reports whether s is an accepted state code.
func ValidStateCode(s string) error {
	if _, ok := slices.BinarySearch(stateCodes, s); !ok {
		return eris.Errorf("model: invalid state code %q (valid: %s)", s, strings.Join(stateCodes, ", "))
	}
	return nil
}

// ValidCountryCode reports whether cc is an ISO 3166-1 alpha-2 country code.
// Case is ignored.
func ValidCountryCode(cc string) error {
	_, err := NormalizeCountryCode(cc)
	return err
}

// NormalizeCountryCode validates cc and returns its canonical upper-case
// form, which names the country directory of the output tree.
func NormalizeCountryCode(cc string) (string, error) {
	cc = strings.TrimSpace(cc)
	if len(cc) != 2 {
		return "", eris.Errorf("model: invalid country code %q (want ISO 3166-1 alpha-2)", cc)
	}
	region, err := language.ParseRegion(cc)
	if err != nil || !region.IsCountry() {
		return "", eris.Errorf("model: invalid country code %q (want ISO 3166-1 alpha-2)", cc)
	}
	return strings.ToUpper(cc), nil
}
