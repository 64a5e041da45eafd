package model

// Privilege represents a permission that can be assigned to users
type Privilege struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"` // e.g., "sale:create"
	Name string `gorm:"type:varchar(100)" json:"name"`                     // e.g., "Create Sale"
}

// Default privileges for the system
var DefaultPrivileges = []Privilege{
	// User management
	{Code: "user:view", Name: "View User"},
	{Code: "user:create", Name: "Create User"},
	{Code: "user:update", Name: "Update User"},
	{Code: "user:delete", Name: "Delete User"},
	{Code: "user:update_privilege", Name: "Update User Privileges"},
	// Catalog management
	{Code: "product:view", Name: "View Product"},
	{Code: "product:create", Name: "Create Product"},
	{Code: "product:update", Name: "Update Product"},
	{Code: "product:delete", Name: "Delete Product"},
	{Code: "category:manage", Name: "Manage Categories"},
	// Customer management
	{Code: "customer:view", Name: "View Customer"},
	{Code: "customer:manage", Name: "Manage Customers"},
	// Sales
	{Code: "sale:view", Name: "View Sale"},
	{Code: "sale:create", Name: "Create Sale"},
	{Code: "sale:refund", Name: "Refund Sale"},
	// Inventory (MANAGER/ADMIN only)
	{Code: "inventory:view", Name: "View Inventory Ledger"},
	{Code: "inventory:adjust", Name: "Adjust Stock"},
	{Code: "inventory:purchase", Name: "Receive Purchases"},
	{Code: "supplier:manage", Name: "Manage Suppliers"},
	// Reporting
	{Code: "report:view", Name: "View Reports"},
}

// CashierPrivileges is the subset granted to the CASHIER role.
var CashierPrivileges = []string{
	"product:view",
	"customer:view",
	"customer:manage",
	"sale:view",
	"sale:create",
}

// ManagerExcluded lists privileges withheld from MANAGER (user administration).
var ManagerExcluded = []string{
	"user:create",
	"user:update",
	"user:delete",
	"user:update_privilege",
}
