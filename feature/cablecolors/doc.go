// Package cablecolors stores the named colors used in cable color patterns.
package cablecolors
