// Package linalg - exact rational linear algebra
// Gauss-Jordan elimination over big.Rat. Exact arithmetic makes every
// nonzero pivot safe, so no magnitude-based pivot selection is needed and
// results carry no floating-point drift.
package linalg

import "math/big"

// Nullspace reduces a row-major matrix with the given column count and
// returns the nullspace structure: a mask marking each column as pivoted
// (false) or free (true), and one basis vector per free column, each of
// length equal to the column count. Every basis vector v satisfies
// matrix x v = 0, and together they span the nullspace exactly.
//
// The matrix is reduced in place and its entries must not alias each other;
// callers that need the original afterwards must pass a copy.
func Nullspace(matrix []*big.Rat, columns int) ([]bool, [][]*big.Rat) {
	if columns < 0 {
		panic("linalg: negative column count")
	}
	if columns == 0 {
		if len(matrix) != 0 {
			panic("linalg: nonempty matrix with zero columns")
		}
		return nil, nil
	}
	if len(matrix)%columns != 0 {
		panic("linalg: matrix length not divisible by column count")
	}
	rows := len(matrix) / columns

	free := make([]bool, columns)
	var basis [][]*big.Rat
	var pivotCols []int
	pivotRow := 0

	for col := 0; col < columns; col++ {
		// First nonzero entry at or below the pivot row claims the pivot.
		found := -1
		for row := pivotRow; row < rows; row++ {
			if matrix[row*columns+col].Sign() != 0 {
				found = row
				break
			}
		}

		if found == -1 {
			// Free column: one basis vector, expressing every pivoted
			// column's required value in terms of this free one. Entries at
			// other free columns stay zero.
			free[col] = true
			vec := make([]*big.Rat, columns)
			for i := range vec {
				vec[i] = new(big.Rat)
			}
			for i, pc := range pivotCols {
				vec[pc] = new(big.Rat).Neg(matrix[i*columns+col])
			}
			vec[col] = big.NewRat(1, 1)
			basis = append(basis, vec)
			continue
		}

		// Entries left of col are zero in both rows, so swapping the tail
		// swaps the rows.
		if found != pivotRow {
			for c := col; c < columns; c++ {
				matrix[pivotRow*columns+c], matrix[found*columns+c] =
					matrix[found*columns+c], matrix[pivotRow*columns+c]
			}
		}

		// Scale the pivot row so the pivot is exactly one.
		pivot := new(big.Rat).Set(matrix[pivotRow*columns+col])
		matrix[pivotRow*columns+col] = big.NewRat(1, 1)
		for c := col + 1; c < columns; c++ {
			entry := matrix[pivotRow*columns+c]
			entry.Quo(entry, pivot)
		}

		// Eliminate the column from every other row.
		for row := 0; row < rows; row++ {
			if row == pivotRow {
				continue
			}
			if matrix[row*columns+col].Sign() == 0 {
				continue
			}
			factor := new(big.Rat).Set(matrix[row*columns+col])
			for c := col; c < columns; c++ {
				entry := matrix[row*columns+c]
				entry.Sub(entry, new(big.Rat).Mul(factor, matrix[pivotRow*columns+c]))
			}
		}

		pivotCols = append(pivotCols, col)
		pivotRow++
	}

	return free, basis
}
