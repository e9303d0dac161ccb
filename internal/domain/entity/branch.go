package entity

// Branch representa una sucursal con stock propio por producto (referencia de solo lectura).
type Branch struct {
	ID   string
	Name string
}
