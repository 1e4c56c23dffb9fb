package timezone

// zoneNames is the fixed catalog of greeted zones, one per populated offset
// region. Order is the order greetings are listed in a message.
var zoneNames = []string{
	"Africa/Accra",
	"Africa/Algiers",
	"Africa/Bissau",
	"Africa/Cairo",
	"Africa/Casablanca",
	"Africa/El_Aaiun",
	"Africa/Johannesburg",
	"Africa/Khartoum",
	"Africa/Lagos",
	"Africa/Monrovia",
	"Africa/Ndjamena",
	"Africa/Nairobi",
	"Africa/Tripoli",
	"Africa/Tunis",
	"Africa/Windhoek",
	"America/Adak",
	"America/Anchorage",
	"America/Argentina/Buenos_Aires",
	"America/Argentina/Cordoba",
	"America/Asuncion",
	"America/Barbados",
	"America/Belize",
	"America/Bogota",
	"America/Cancun",
	"America/Caracas",
	"America/Cayenne",
	"America/Chicago",
	"America/Chihuahua",
	"America/Costa_Rica",
	"America/Curacao",
	"America/Danmarkshavn",
	"America/Denver",
	"America/Detroit",
	"America/El_Salvador",
	"America/Godthab",
	"America/Guatemala",
	"America/Guayaquil",
	"America/Guyana",
	"America/Havana",
	"America/Indiana/Indianapolis",
	"America/Jamaica",
	"America/Juneau",
	"America/La_Paz",
	"America/Lima",
	"America/Los_Angeles",
	"America/Managua",
	"America/Martinique",
	"America/Menominee",
	"America/Metlakatla",
	"America/Mexico_City",
	"America/Miquelon",
	"America/Montevideo",
	"America/Nassau",
	"America/New_York",
	"America/Nome",
	"America/Noronha",
	"America/Panama",
	"America/Paramaribo",
	"America/Phoenix",
	"America/Port_of_Spain",
	"America/Port-au-Prince",
	"America/Porto_Velho",
	"America/Puerto_Rico",
	"America/Santiago",
	"America/Santo_Domingo",
	"America/Sao_Paulo",
	"America/Sitka",
	"America/St_Johns",
	"America/Tegucigalpa",
	"America/Tijuana",
	"America/Toronto",
	"America/Vancouver",
	"America/Yakutat",
	"Antarctica/Casey",
	"Antarctica/Davis",
	"Antarctica/DumontDUrville",
	"Antarctica/Mawson",
	"Antarctica/Vostok",
	"Asia/Aqtobe",
	"Asia/Almaty",
	"Asia/Baghdad",
	"Asia/Baku",
	"Asia/Bangkok",
	"Asia/Barnaul",
	"Asia/Beirut",
	"Asia/Brunei",
	"Asia/Chita",
	"Asia/Colombo",
	"Asia/Dhaka",
	"Asia/Ho_Chi_Minh",
	"Asia/Hong_Kong",
	"Asia/Irkutsk",
	"Asia/Jakarta",
	"Asia/Jayapura",
	"Asia/Jerusalem",
	"Asia/Kabul",
	"Asia/Kamchatka",
	"Asia/Karachi",
	"Asia/Kathmandu",
	"Asia/Khandyga",
	"Asia/Kolkata",
	"Asia/Kuala_Lumpur",
	"Asia/Makassar",
	"Asia/Manila",
	"Asia/Nicosia",
	"Asia/Novosibirsk",
	"Asia/Omsk",
	"Asia/Pyongyang",
	"Asia/Qatar",
	"Asia/Sakhalin",
	"Asia/Seoul",
	"Asia/Shanghai",
	"Asia/Taipei",
	"Asia/Tbilisi",
	"Asia/Tehran",
	"Asia/Tokyo",
	"Asia/Vladivostok",
	"Asia/Yangon",
	"Asia/Yakutsk",
	"Asia/Yekaterinburg",
	"Asia/Yerevan",
	"Atlantic/Azores",
	"Atlantic/Bermuda",
	"Atlantic/Canary",
	"Atlantic/Cape_Verde",
	"Atlantic/Faroe",
	"Atlantic/Madeira",
	"Atlantic/Reykjavik",
	"Atlantic/South_Georgia",
	"Australia/Adelaide",
	"Australia/Broken_Hill",
	"Australia/Currie",
	"Australia/Darwin",
	"Australia/Hobart",
	"Australia/Lord_Howe",
	"Australia/Melbourne",
	"Australia/Sydney",
	"Europe/Amsterdam",
	"Europe/Astrakhan",
	"Europe/Berlin",
	"Europe/Bucharest",
	"Europe/Copenhagen",
	"Europe/Gibraltar",
	"Europe/Istanbul",
	"Europe/Kiev",
	"Europe/Lisbon",
	"Europe/London",
	"Europe/Luxembourg",
	"Europe/Oslo",
	"Europe/Paris",
	"Europe/Moscow",
	"Europe/Simferopol",
	"Europe/Stockholm",
	"Indian/Christmas",
	"Indian/Cocos",
	"Indian/Kerguelen",
	"Indian/Mahe",
	"Indian/Maldives",
	"Indian/Mauritius",
	"Indian/Reunion",
	"Pacific/Apia",
	"Pacific/Auckland",
	"Pacific/Chatham",
	"Pacific/Easter",
	"Pacific/Efate",
	"Pacific/Enderbury",
	"Pacific/Fiji",
	"Pacific/Gambier",
	"Pacific/Galapagos",
	"Pacific/Guam",
	"Pacific/Honolulu",
	"Pacific/Kiritimati",
	"Pacific/Marquesas",
	"Pacific/Noumea",
	"Pacific/Pitcairn",
	"Pacific/Rarotonga",
	"Pacific/Tahiti",
	"Pacific/Tarawa",
}
