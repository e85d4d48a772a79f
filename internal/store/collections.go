package store

import (
	"reflect"

	"hospital-admin-server/internal/models"
)

// Collection names a logical table.
type Collection string

const (
	Accounts     Collection = "accounts"
	Patients     Collection = "patients"
	Appointments Collection = "appointments"
	Invoices     Collection = "invoices"
)

// ID prefixes used by the services.
const (
	AccountPrefix     = "USR"
	PatientPrefix     = "PAT"
	AppointmentPrefix = "APT"
	InvoicePrefix     = "INV"
)

type collectionInfo struct {
	model     reflect.Type
	idField   string
	hasActive bool
}

var collections = map[Collection]collectionInfo{
	Accounts:     {model: reflect.TypeOf(models.Account{}), idField: "user_id", hasActive: true},
	Patients:     {model: reflect.TypeOf(models.Patient{}), idField: "patient_id", hasActive: true},
	Appointments: {model: reflect.TypeOf(models.Appointment{}), idField: "appointment_id"},
	Invoices:     {model: reflect.TypeOf(models.Invoice{}), idField: "bill_id"},
}

// IDField returns the business identifier column of coll.
func IDField(coll Collection) (string, bool) {
	info, ok := collections[coll]
	return info.idField, ok
}

func lookup(coll Collection) (collectionInfo, error) {
	info, ok := collections[coll]
	if !ok {
		return collectionInfo{}, ErrUnknownCollection
	}
	return info, nil
}

func collectionOf(t reflect.Type) (Collection, bool) {
	for name, info := range collections {
		if info.model == t {
			return name, true
		}
	}
	return "", false
}

// Columns lists the writable columns of coll, in schema order.
func Columns(coll Collection) ([]string, error) {
	info, err := lookup(coll)
	if err != nil {
		return nil, err
	}
	sch, err := schemaOf(info.model)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(sch.DBNames))
	for _, name := range sch.DBNames {
		if !sch.FieldsByDBName[name].PrimaryKey {
			names = append(names, name)
		}
	}
	return names, nil
}
