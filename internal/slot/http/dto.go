package http

// AvailabilityQuery defines query parameters for reconstructing slots.
type AvailabilityQuery struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to" binding:"required,datetime=2006-01-02"`
}

// SlotKeyBody identifies one slot of the venue in the path.
type SlotKeyBody struct {
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"required,datetime=15:04"`
}

// BookBody is the manager-entered physical booking request.
type BookBody struct {
	SlotKeyBody
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
}

// BlockBody blocks one slot.
type BlockBody struct {
	SlotKeyBody
	Reason string `json:"reason"`
}

// ReserveBody reserves one slot.
type ReserveBody struct {
	SlotKeyBody
	Note string `json:"note"`
}
