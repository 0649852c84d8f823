// Copyright 2025 Tom Barlow
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

package permissions

import (
	"context"
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver map[string][]netip.Addr

func (f fakeResolver) LookupNetIP(_ context.Context, _, host string) ([]netip.Addr, error) {
	if addrs, ok := f[host]; ok {
		return addrs, nil
	}
	return nil, errors.New("no such host")
}

func TestCheckHost(t *testing.T) {
	r := fakeResolver{
		"example.com":  {netip.MustParseAddr("93.184.216.34")},
		"internal.lan": {netip.MustParseAddr("10.1.2.3")},
	}

	tests := []struct {
		host    string
		blocked bool
	}{
		{"example.com", false},
		{"example.com:443", false},
		{"internal.lan", true},
		{"localhost", true},
		{"localhost:8080", true},
		{"127.0.0.1", true},
		{"169.254.169.254", true},
		{"192.168.1.10:80", true},
		{"[::1]:8080", true},
		{"8.8.8.8", false},
		{"metadata.google.internal", true},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			err := CheckHost(context.Background(), r, tt.host)
			if tt.blocked {
				require.Error(t, err)
				assert.True(t, IsPermissionError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckHostLookupFailure(t *testing.T) {
	err := CheckHost(context.Background(), fakeResolver{}, "nowhere.invalid")
	require.Error(t, err)
	assert.False(t, IsPermissionError(err))
}

func TestIsBlockedAddrMapped(t *testing.T) {
	assert.True(t, IsBlockedAddr(netip.MustParseAddr("::ffff:127.0.0.1")))
	assert.False(t, IsBlockedAddr(netip.MustParseAddr("1.1.1.1")))
}
