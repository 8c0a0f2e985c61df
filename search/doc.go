// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package search ranks clipboard history against a query.
//
// Ranking combines two signals:
//   - a literal, case-folded substring match on text entries, worth a fixed
//     bonus that no similarity score can reach
//   - cosine similarity between the query vector and the entry vector,
//     scaled up for image entries because cross-modal scores run roughly
//     an order of magnitude lower than same-modal ones
//
// Both constants are empirical and should be re-checked whenever the
// embedding model changes. Without a query vector, search degrades to
// substring matching.
package search
