package model

// RegionCode is the two-letter code of a Brazilian federative unit.
type RegionCode string

const (
	RegionAC RegionCode = "AC"
	RegionAL RegionCode = "AL"
	RegionAP RegionCode = "AP"
	RegionAM RegionCode = "AM"
	RegionBA RegionCode = "BA"
	RegionCE RegionCode = "CE"
	RegionDF RegionCode = "DF"
	RegionES RegionCode = "ES"
	RegionGO RegionCode = "GO"
	RegionMA RegionCode = "MA"
	RegionMT RegionCode = "MT"
	RegionMS RegionCode = "MS"
	RegionMG RegionCode = "MG"
	RegionPA RegionCode = "PA"
	RegionPB RegionCode = "PB"
	RegionPR RegionCode = "PR"
	RegionPE RegionCode = "PE"
	RegionPI RegionCode = "PI"
	RegionRJ RegionCode = "RJ"
	RegionRN RegionCode = "RN"
	RegionRS RegionCode = "RS"
	RegionRO RegionCode = "RO"
	RegionRR RegionCode = "RR"
	RegionSC RegionCode = "SC"
	RegionSP RegionCode = "SP"
	RegionSE RegionCode = "SE"
	RegionTO RegionCode = "TO"
)

var regionNames = map[RegionCode]string{
	RegionAC: "Acre",
	RegionAL: "Alagoas",
	RegionAP: "Amapá",
	RegionAM: "Amazonas",
	RegionBA: "Bahia",
	RegionCE: "Ceará",
	RegionDF: "Distrito Federal",
	RegionES: "Espírito Santo",
	RegionGO: "Goiás",
	RegionMA: "Maranhão",
	RegionMT: "Mato Grosso",
	RegionMS: "Mato Grosso do Sul",
	RegionMG: "Minas Gerais",
	RegionPA: "Pará",
	RegionPB: "Paraíba",
	RegionPR: "Paraná",
	RegionPE: "Pernambuco",
	RegionPI: "Piauí",
	RegionRJ: "Rio de Janeiro",
	RegionRN: "Rio Grande do Norte",
	RegionRS: "Rio Grande do Sul",
	RegionRO: "Rondônia",
	RegionRR: "Roraima",
	RegionSC: "Santa Catarina",
	RegionSP: "São Paulo",
	RegionSE: "Sergipe",
	RegionTO: "Tocantins",
}

// IsValid reports whether r is one of the 27 known codes.
func (r RegionCode) IsValid() bool {
	_, ok := regionNames[r]
	return ok
}

// Name returns the display name of the region, or "" for unknown codes.
func (r RegionCode) Name() string {
	return regionNames[r]
}
