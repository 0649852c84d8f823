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

/*
Package secrets resolves secret references used in mcp-toolbox
configuration.

A reference is one of:

	env:NAME        value of environment variable NAME
	keychain:NAME   entry NAME under the "mcp-toolbox" service in the OS keychain
	file:NAME       entry NAME in the encrypted secrets.enc file, keyed by
	                MCP_TOOLBOX_MASTER_KEY
	anything else   used literally

The keychain backend uses the system keyring (macOS Keychain, Secret
Service on Linux, Windows Credential Manager). Tests should call
keyring.MockInit before touching it.
*/
package secrets
