package models

// User represents a user document in the store
type User struct {
	// ID is the string form of the store-assigned identifier
	ID   string  `json:"id"`
	Name *string `json:"name"`
	Age  *int32  `json:"age"`
}

// UserPatch holds the fields of a partial update. Nil fields are left untouched.
type UserPatch struct {
	Name *string
	Age  *int32
}

// Empty reports whether the patch changes nothing
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Age == nil
}
