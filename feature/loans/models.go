package loans

import (
	"time"

	"github.com/sohosai/hyperdashi-server/core/mapper"
	"github.com/sohosai/hyperdashi-server/core/validate"
)

// Loan is one lending of an item. ReturnDate is nil while it is active.
type Loan struct {
	ID            int64      `json:"id"`
	ItemID        int64      `json:"item_id"`
	StudentNumber string     `json:"student_number"`
	StudentName   string     `json:"student_name"`
	Organization  *string    `json:"organization"`
	LoanDate      time.Time  `json:"loan_date"`
	ReturnDate    *time.Time `json:"return_date"`
	Remarks       *string    `json:"remarks"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Active reports whether the loan has not been returned.
func (l *Loan) Active() bool { return l.ReturnDate == nil }

// WithItem is a loan joined with the name and label of its item.
type WithItem struct {
	Loan
	ItemName    string `json:"item_name"`
	ItemLabelID string `json:"item_label_id"`
}

// CreateRequest lends an item.
type CreateRequest struct {
	ItemID        int64   `json:"item_id"`
	StudentNumber string  `json:"student_number"`
	StudentName   string  `json:"student_name"`
	Organization  *string `json:"organization"`
	Remarks       *string `json:"remarks"`
}

// Validate checks field bounds.
func (r *CreateRequest) Validate() error {
	return validate.Check(
		validate.Length("student_number", r.StudentNumber, 1, 20),
		validate.Length("student_name", r.StudentName, 1, 100),
		validate.OptLength("organization", r.Organization, 0, 255),
	)
}

// ReturnRequest closes a loan. A nil ReturnDate means now; nil Remarks
// keeps the remarks recorded at lending.
type ReturnRequest struct {
	ReturnDate *time.Time `json:"return_date"`
	Remarks    *string    `json:"remarks"`
}

// Filter narrows List. ActiveOnly true selects active loans, false
// selects returned ones.
type Filter struct {
	ItemID        *int64
	StudentNumber *string
	ActiveOnly    *bool
}

// ListResult is one page of loans.
type ListResult struct {
	Loans      []WithItem `json:"loans"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PerPage    int        `json:"per_page"`
	TotalPages int        `json:"total_pages"`
}

const loanColumns = "l.id, l.item_id, i.name AS item_name, i.label_id AS item_label_id, l.student_number, " +
	"l.student_name, l.organization, l.loan_date, l.return_date, l.remarks, l.created_at, l.updated_at"

const loanFrom = " FROM loans l JOIN items i ON i.id = l.item_id"

func loanFromRow(r mapper.Row) WithItem {
	return WithItem{
		Loan: Loan{
			ID:            r.Int64("id"),
			ItemID:        r.Int64("item_id"),
			StudentNumber: r.Text("student_number"),
			StudentName:   r.Text("student_name"),
			Organization:  r.OptString("organization"),
			LoanDate:      r.Time("loan_date"),
			ReturnDate:    r.OptTime("return_date"),
			Remarks:       r.OptString("remarks"),
			CreatedAt:     r.Time("created_at"),
			UpdatedAt:     r.Time("updated_at"),
		},
		ItemName:    r.Text("item_name"),
		ItemLabelID: r.Text("item_label_id"),
	}
}
