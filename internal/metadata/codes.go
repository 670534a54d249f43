package metadata

import "strings"

// NoPermission is the cell value for "nothing granted".
const NoPermission = "-"

// Object permission letters, concatenated in this order.
const (
	CodeCreate        = "C"
	CodeRead          = "R"
	CodeEdit          = "U"
	CodeDelete        = "D"
	CodeViewAll       = "Va"
	CodeModifyAll     = "Ua"
	CodeViewAllFields = "Fa"
)

// Field permission codes.
const (
	CodeFieldRead     = "R"
	CodeFieldReadEdit = "RU"
)

// ObjectCode concatenates one code per granted flag in the fixed order
// C, R, U, D, Va, Ua, Fa. No flag yields NoPermission.
func ObjectCode(op ObjectPermission) string {
	var sb strings.Builder
	flags := []struct {
		on   bool
		code string
	}{
		{op.AllowCreate, CodeCreate},
		{op.AllowRead, CodeRead},
		{op.AllowEdit, CodeEdit},
		{op.AllowDelete, CodeDelete},
		{op.ViewAllRecords, CodeViewAll},
		{op.ModifyAllRecords, CodeModifyAll},
		{op.ViewAllFields, CodeViewAllFields},
	}
	for _, f := range flags {
		if f.on {
			sb.WriteString(f.code)
		}
	}
	if sb.Len() == 0 {
		return NoPermission
	}
	return sb.String()
}

// FieldCode is RU for read+edit and R for read only. Edit without read is
// not representable and yields NoPermission.
func FieldCode(fp FieldPermission) string {
	switch {
	case fp.Readable && fp.Editable:
		return CodeFieldReadEdit
	case fp.Readable:
		return CodeFieldRead
	default:
		return NoPermission
	}
}

// LegendEntry describes one permission code.
type LegendEntry struct {
	Code        string
	Description string
}

// ObjectLegend lists the object-level code vocabulary.
func ObjectLegend() []LegendEntry {
	return []LegendEntry{
		{CodeCreate, "Create"},
		{CodeRead, "Read"},
		{CodeEdit, "Edit"},
		{CodeDelete, "Delete"},
		{CodeViewAll, "View All Records"},
		{CodeModifyAll, "Modify All Records"},
		{CodeViewAllFields, "View All Fields"},
		{NoPermission, "No permission"},
	}
}

// FieldLegend lists the field-level code vocabulary.
func FieldLegend() []LegendEntry {
	return []LegendEntry{
		{CodeFieldRead, "Read"},
		{CodeFieldReadEdit, "Read / Edit"},
		{NoPermission, "No permission"},
	}
}
