/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package cnpj validates and formats Brazilian company registration numbers (CNPJ).
package cnpj

import (
	"errors"
	"strings"
)

// Length is the number of digits in a CNPJ.
const Length = 14

var ErrInvalid = errors.New("cnpj: invalid number")

var (
	firstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	secondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Normalize strips the usual punctuation (dots, slash, dash, spaces). Any other
// non-digit rune is kept so that Valid rejects it.
func Normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '/', '-', ' ':
			return -1
		}
		return r
	}, s)
}

// Valid reports whether s is a well-formed CNPJ with correct check digits.
// Formatted ("11.222.333/0001-81") and bare input are both accepted.
func Valid(s string) bool {
	d := Normalize(s)
	if len(d) != Length {
		return false
	}
	digits := make([]int, Length)
	same := true
	for i := 0; i < Length; i++ {
		c := d[i]
		if c < '0' || c > '9' {
			return false
		}
		digits[i] = int(c - '0')
		if digits[i] != digits[0] {
			same = false
		}
	}
	if same {
		return false
	}
	return checkDigit(digits[:12], firstWeights) == digits[12] &&
		checkDigit(digits[:13], secondWeights) == digits[13]
}

func checkDigit(digits, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += digits[i] * w
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// Format renders a valid CNPJ as NN.NNN.NNN/NNNN-NN.
func Format(s string) (string, error) {
	if !Valid(s) {
		return "", ErrInvalid
	}
	d := Normalize(s)
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14], nil
}
