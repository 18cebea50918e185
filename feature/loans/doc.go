// Package loans lends items to students and takes them back. Creating and
// returning a loan each run in one transaction together with the item's
// is_on_loan flag.
package loans
