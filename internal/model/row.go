package model

// Row is one establishment's contact record. Field order is the CSV column order.
type Row struct {
	Establishment string `csv:"establishment" json:"establishment"`
	PhoneNumber   string `csv:"phone_number" json:"phone_number"`
	Address       string `csv:"address" json:"address"`
	City          string `csv:"city" json:"city"`
	State         string `csv:"state" json:"state"`
	PostalCode    string `csv:"postal_code" json:"postal_code"`
	Website       string `csv:"website" json:"website"`
	DataSource    string `csv:"data_source" json:"data_source"`
}

// RowHeader lists the CSV columns written for every Row.
var RowHeader = []string{
	"establishment",
	"phone_number",
	"address",
	"city",
	"state",
	"postal_code",
	"website",
	"data_source",
}

// Strings returns the row's values in RowHeader order.
func (r Row) Strings() []string {
	return []string{
		r.Establishment,
		r.PhoneNumber,
		r.Address,
		r.City,
		r.State,
		r.PostalCode,
		r.Website,
		r.DataSource,
	}
}
