// Copyright 2026 Blink Labs Software
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

package wallet

import (
	"fmt"
	"strings"

	"github.com/blinklabs-io/goton/boc"
)

// Version identifies a wallet contract revision
type Version string

const (
	VersionV3R1 Version = "v3R1"
	VersionV3R2 Version = "v3R2"
	VersionV4R2 Version = "v4R2"
	VersionV5R1 Version = "w5"
)

// Versions lists the supported wallet contracts, oldest first
var Versions = []Version{VersionV3R1, VersionV3R2, VersionV4R2, VersionV5R1}

// Code BOCs of the supported wallet contracts
const (
	codeV3R1 = "B5EE9C724101010100620000C0FF0020DD2082014C97BA9730ED44D0D70B1FE0A4F2608308D71820D31FD31FD31FF82313BBF263ED44D0D31FD31FD3FFD15132BAF2A15144BAF2A204F901541055F910F2A3F8009320D74A96D307D402FB00E8D101A4C8CB1FCB1FCBFFC9ED543FBE6EE0"
	codeV3R2 = "B5EE9C724101010100710000DEFF0020DD2082014C97BA218201339CBAB19F71B0ED44D0D31FD31F31D70BFFE304E0A4F2608308D71820D31FD31FD31FF82313BBF263ED44D0D31FD31FD3FFD15132BAF2A15144BAF2A204F901541055F910F2A3F8009320D74A96D307D402FB00E8D101A4C8CB1FCB1FCBFFC9ED5410BD6DAD"
	codeV4R2 = "B5EE9C72410214010002D4000114FF00F4A413F4BCF2C80B010201200203020148040504F8F28308D71820D31FD31FD31F02F823BBF264ED44D0D31FD31FD3FFF404D15143BAF2A15151BAF2A205F901541064F910F2A3F80024A4C8CB1F5240CB1F5230CBFF5210F400C9ED54F80F01D30721C0009F6C519320D74A96D307D402FB00E830E021C001E30021C002E30001C0039130E30D03A4C8CB1F12CB1FCBFF1011121302E6D001D0D3032171B0925F04E022D749C120925F04E002D31F218210706C7567BD22821064737472BDB0925F05E003FA403020FA4401C8CA07CBFFC9D0ED44D0810140D721F404305C810108F40A6FA131B3925F07E005D33FC8258210706C7567BA923830E30D03821064737472BA925F06E30D06070201200809007801FA00F40430F8276F2230500AA121BEF2E0508210706C7567831EB17080185004CB0526CF1658FA0219F400CB6917CB1F5260CB3F20C98040FB0006008A5004810108F45930ED44D0810140D720C801CF16F400C9ED540172B08E23821064737472831EB17080185005CB055003CF1623FA0213CB6ACB1FCB3FC98040FB00925F03E20201200A0B0059BD242B6F6A2684080A06B90FA0218470D4080847A4937D29910CE6903E9FF9837812801B7810148987159F31840201580C0D0011B8C97ED44D0D70B1F8003DB29DFB513420405035C87D010C00B23281F2FFF274006040423D029BE84C600201200E0F0019ADCE76A26840206B90EB85FFC00019AF1DF6A26840106B90EB858FC0006ED207FA00D4D422F90005C8CA0715CBFFC9D077748018C8CB05CB0222CF165005FA0214CB6B12CCCCC973FB00C84014810108F451F2A7020070810108D718FA00D33FC8542047810108F451F2A782106E6F746570748018C8CB05CB025006CF165004FA0214CB6A12CB1FCB3FC973FB0002006C810108D718FA00D33F305224810108F459F2A782106473747270748018C8CB05CB025005CF165003FA0213CB6ACB1F12CB3FC973FB00000AF400C9ED54696225E5"
	codeV5R1 = "B5EE9C7241021401000281000114FF00F4A413F4BCF2C80B01020120020D020148030402DCD020D749C120915B8F6320D70B1F2082106578746EBD21821073696E74BDB0925F03E082106578746EBA8EB48020D72101D074D721FA4030FA44F828FA443058BD915BE0ED44D0810141D721F4058307F40E6FA1319130E18040D721707FDB3CE03120D749810280B99130E070E2100F020120050C020120060902016E07080019ADCE76A2684020EB90EB85FFC00019AF1DF6A2684010EB90EB858FC00201480A0B0017B325FB51341C75C875C2C7E00011B262FB513435C280200019BE5F0F6A2684080A0EB90FA02C0102F20E011E20D70B1F82107369676EBAF2E08A7F0F01E68EF0EDA2EDFB218308D722028308D723208020D721D31FD31FD31FED44D0D200D31F20D31FD3FFD70A000AF90140CCF9109A28945F0ADB31E1F2C087DF02B35007B0F2D0845125BAF2E0855036BAF2E086F823BBF2D0882292F800DE01A47FC8CA00CB1F01CF16C9ED542092F80FDE70DB3CD81003F6EDA2EDFB02F404216E926C218E4C0221D73930709421C700B38E2D01D72820761E436C20D749C008F2E09320D74AC002F2E09320D71D06C712C2005230B0F2D089D74CD7393001A4E86C128407BBF2E093D74AC000F2E093ED55E2D20001C000915BE0EBD72C08142091709601D72C081C12E25210B1E30F20D74A111213009601FA4001FA44F828FA443058BAF2E091ED44D0810141D718F405049D7FC8CA0040048307F453F2E08B8E14038307F45BF2E08C22D70A00216E01B3B0F2D090E2C85003CF1612F400C9ED54007230D72C08248E2D21F2E092D200ED44D0D2005113BAF2D08F54503091319C01810140D721D70A00F2E08EE2C8CA0058CF16C9ED5493F2C08DE20010935BDB31E1D74CD0B4D6C35E"
)

// ParseVersion accepts a version name in any letter case
func ParseVersion(name string) (Version, error) {
	for _, v := range Versions {
		if strings.EqualFold(name, string(v)) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedVersion, name)
}

func (v Version) String() string {
	return string(v)
}

// Code returns the contract code cell of the wallet version
func (v Version) Code() (*boc.Cell, error) {
	var codeHex string
	switch v {
	case VersionV3R1:
		codeHex = codeV3R1
	case VersionV3R2:
		codeHex = codeV3R2
	case VersionV4R2:
		codeHex = codeV4R2
	case VersionV5R1:
		codeHex = codeV5R1
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, string(v))
	}
	return boc.FromBocHex(codeHex)
}

// hasOp reports whether the signing message carries an op byte
func (v Version) hasOp() bool {
	return v == VersionV4R2 || v == VersionV5R1
}

// hasPluginDict reports whether the data cell ends with a plugin dictionary
func (v Version) hasPluginDict() bool {
	return v == VersionV4R2 || v == VersionV5R1
}

// hasPlugins reports whether the contract accepts plugin install and remove requests
func (v Version) hasPlugins() bool {
	return v == VersionV4R2
}
