/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package backend

import (
	"context"
	"errors"
	"strings"
	"sync"

	"gat2way/internal/domain"
)

// ErrSuperseded is returned to a lookup whose selection was replaced by a newer one.
var ErrSuperseded = errors.New("backend: lookup superseded by a newer selection")

// CityFetcher is the part of Client the city lookup needs.
type CityFetcher interface {
	ListCidades(ctx context.Context, uf string) ([]domain.Cidade, error)
}

// CityResult is the outcome of one accepted selection.
type CityResult struct {
	Seq     uint64
	UF      string
	Cidades []domain.Cidade
}

// CityLookup drives the UF -> cidade dependent dropdown. Selecting a UF
// cancels the request for the previous selection; only the newest selection's
// result is ever accepted, whatever order responses arrive in.
type CityLookup struct {
	src CityFetcher

	mu      sync.Mutex
	seq     uint64
	cancel  context.CancelFunc
	current CityResult
}

// NewCityLookup returns a lookup with no selection that fetches from src.
func NewCityLookup(src CityFetcher) *CityLookup {
	return &CityLookup{src: src}
}

// Select fetches the cities for uf. An empty uf clears the list without a
// request. Older in-flight selections return ErrSuperseded.
func (l *CityLookup) Select(ctx context.Context, uf string) (CityResult, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.seq++
	seq := l.seq
	if uf == "" {
		l.current = CityResult{Seq: seq}
		l.mu.Unlock()
		return l.current, nil
	}
	fctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.mu.Unlock()

	list, err := l.src.ListCidades(fctx, uf)

	l.mu.Lock()
	defer l.mu.Unlock()
	if seq != l.seq {
		cancel()
		return CityResult{}, ErrSuperseded
	}
	l.cancel = nil
	cancel()
	if err != nil {
		return CityResult{}, err
	}
	l.current = CityResult{Seq: seq, UF: uf, Cidades: list}
	return l.current, nil
}

// Current returns the last accepted result.
func (l *CityLookup) Current() CityResult {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}
