package meta

import "reflect"

// auditFieldName is the well-known audit substructure field name.
const auditFieldName = "Audit"

// fallbackAuditNames are the common audit column names used when a type has
// no dedicated audit substructure.
var fallbackAuditNames = []string{
	"CreatedAt",
	"CreatedBy",
	"UpdatedAt",
	"UpdatedBy",
	"Version",
}

// auditSet computes the audit-managed property names for a type: the leaf
// names of a struct field called Audit when one exists, otherwise the subset
// of the well-known fallback names the type actually declares.
func auditSet(t reflect.Type, d *TypeDescriptor) map[string]struct{} {
	set := make(map[string]struct{})

	if field, ok := t.FieldByName(auditFieldName); ok {
		ft := Deref(field.Type)
		if ft.Kind() == reflect.Struct {
			set[auditFieldName] = struct{}{}
			for i := 0; i < ft.NumField(); i++ {
				sub := ft.Field(i)
				if sub.IsExported() {
					set[sub.Name] = struct{}{}
				}
			}
			return set
		}
	}

	for _, name := range fallbackAuditNames {
		if _, ok := d.byName[name]; ok {
			set[name] = struct{}{}
		}
	}
	return set
}
