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

// Package clipboard captures clipboard changes and normalizes them into
// core.Content values.
//
// A Monitor blocks on a Platform's change notifications from a goroutine
// locked to its OS thread. Each notification is read after a short settle
// delay and confirmed with a few verification reads. Content equal to the
// previous capture is dropped. The rest is handed to a single consumer
// through an unbounded FIFO queue.
package clipboard
