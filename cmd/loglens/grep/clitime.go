// Copyright 2016 Qubit Digital Ltd.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package grep

import (
	"time"

	"github.com/Caelrith/loglens-core/timeexpr"
)

// cliTime is a flag holding an instant, written the same way as the
// times used in queries.
type cliTime time.Time

func (t *cliTime) Get() interface{} {
	return *t
}

func (t *cliTime) String() string {
	if time.Time(*t).IsZero() {
		return ""
	}
	return time.Time(*t).Format(time.RFC3339)
}

func (t *cliTime) Type() string {
	return "time"
}

func (t *cliTime) Set(s string) error {
	pt, err := timeexpr.Parse(s)
	if err != nil {
		return err
	}
	*t = cliTime(pt)
	return nil
}
