package dbmodels

// Pond пруд (аквакультура)
type Pond struct {
	BaseCompanyModel
	BranchID int64  `gorm:"index"`
	Name     string `gorm:"type:varchar(150)"`
	Code     string `gorm:"type:varchar(50);index"`
	Status   string `gorm:"type:varchar(30)"`
}

// Net садок в пруду
type Net struct {
	BaseCompanyModel
	BranchID int64  `gorm:"index"`
	PondID   int64  `gorm:"index"`
	Name     string `gorm:"type:varchar(150)"`
	Code     string `gorm:"type:varchar(50);index"`
	Status   string `gorm:"type:varchar(30)"`
}

// Batch партия (малёк, цыплята, личинки)
type Batch struct {
	BaseCompanyModel
	BranchID int64  `gorm:"index"`
	Name     string `gorm:"type:varchar(150)"`
	Code     string `gorm:"type:varchar(50);index"`
	Species  string `gorm:"type:varchar(100)"`
	Status   string `gorm:"type:varchar(30)"`
}
