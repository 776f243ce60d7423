// Copyright (c) 2025, The Collector Watcher Authors.
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

package defaults

import "time"

// Git timeouts for repository operations.
const (
	// GitCommandTimeout bounds read-only git invocations (tag listing,
	// rev-list). Applied when the caller's context carries no deadline.
	GitCommandTimeout = 30 * time.Second

	// GitCheckoutTimeout bounds checkout operations, which can touch a
	// large part of the working tree on big repositories.
	GitCheckoutTimeout = 5 * time.Minute
)
