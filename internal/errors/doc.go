// Package errors provides coded, explainable errors for the theme layer.
//
// Codes are grouped by category:
//   - usage (T001-T009): integration mistakes such as reading the theme
//     outside a provider scope
//   - validation (T010-T019): rejected theme values
//   - storage (T020-T029): session backend failures
//   - transport (T030-T039): persistence and broadcast delivery
//   - config (T040-T049): configuration loading
//
// Usage:
//
//	err := errors.New("T040").Wrap(cause)
//	fmt.Fprint(os.Stderr, err.Format())
package errors
