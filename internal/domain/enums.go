package domain

// UserRole defines the role hierarchy within a client.
type UserRole string

const (
	RoleUser    UserRole = "user"
	RoleManager UserRole = "manager"
	RoleAdmin   UserRole = "admin"
)

// ValidRoles lists the roles accepted from any identity transport.
var ValidRoles = map[UserRole]bool{
	RoleUser:    true,
	RoleManager: true,
	RoleAdmin:   true,
}

// RecordState represents the approval lifecycle state of a valuation record.
type RecordState string

const (
	StatePending    RecordState = "pending"
	StateOnProgress RecordState = "on-progress"
	StateApproved   RecordState = "approved"
	StateRejected   RecordState = "rejected"
	StateRework     RecordState = "rework"
)

// ValidStates lists every lifecycle state.
var ValidStates = map[RecordState]bool{
	StatePending:    true,
	StateOnProgress: true,
	StateApproved:   true,
	StateRejected:   true,
	StateRework:     true,
}

// ManagerAction is the decision submitted by a manager or admin.
type ManagerAction string

const (
	ActionApproved ManagerAction = "approved"
	ActionRejected ManagerAction = "rejected"
)

// FormVariant identifies one of the bank-specific valuation form types.
// All variants share identical lifecycle semantics; only the payload schema
// and the backing table differ.
type FormVariant string

const (
	VariantUBIAPF  FormVariant = "ubi-apf"
	VariantUBIShop FormVariant = "ubi-shop"
	VariantBOMFlat FormVariant = "bom-flat"
)

// VariantTables maps each form variant to its backing table.
var VariantTables = map[FormVariant]string{
	VariantUBIAPF:  "ubi_apf_records",
	VariantUBIShop: "ubi_shop_records",
	VariantBOMFlat: "bom_flat_records",
}

// FileType represents the allowed attachment file types.
type FileType string

const (
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
	FileTypePDF FileType = "pdf"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
	FileTypePDF: "application/pdf",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
	"application/pdf": FileTypePDF,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
	"pdf":  FileTypePDF,
}
